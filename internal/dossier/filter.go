package dossier

import (
	"strings"

	"github.com/stwalsh4118/dossier/api/internal/models"
)

// AllLocalidades matches members of every locality.
const AllLocalidades = "all"

// Query narrows a list of dossiers.
type Query struct {
	Search    string
	Localidad string
}

// Filter returns the views matching q, in their original order.
// Search is case-insensitive over full name, DNI, mz and lote.
func Filter(views []models.MemberView, q Query) []models.MemberView {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	localidad := strings.TrimSpace(q.Localidad)

	out := make([]models.MemberView, 0, len(views))
	for _, v := range views {
		if localidad != "" && localidad != AllLocalidades && v.Localidad != localidad {
			continue
		}
		if search != "" && !matchesSearch(v, search) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func matchesSearch(v models.MemberView, search string) bool {
	if strings.Contains(strings.ToLower(v.FullName()), search) {
		return true
	}
	if strings.Contains(v.DNI, search) {
		return true
	}
	if v.Mz != nil && strings.Contains(strings.ToLower(*v.Mz), search) {
		return true
	}
	return v.Lote != nil && strings.Contains(strings.ToLower(*v.Lote), search)
}
