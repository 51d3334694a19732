package dossier

import (
	"github.com/stwalsh4118/dossier/api/internal/ledger"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// BuildView assembles one member's dossier from its profile, its raw
// documents and the ledger index. It never fails.
func BuildView(member models.Member, ix *ledger.Index) models.MemberView {
	docs := ValidateDocuments(member.Documents, ix)

	profile := member
	profile.Documents = nil

	return models.MemberView{
		Member:       profile,
		Documents:    docs,
		Payment:      DerivePayment(ix.ForDNI(member.DNI)),
		Survey:       DeriveSurvey(docs, member.Survey),
		StoredSurvey: member.Survey,
	}
}
