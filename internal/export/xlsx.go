// Package export renders reconciled dossiers as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in the workbook.
const SheetName = "Expedientes"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []interface{}{
	"ID",
	"DNI",
	"Nombres",
	"Apellido paterno",
	"Apellido materno",
	"Localidad",
	"Mz",
	"Lote",
	"Estado de pago",
	"N° recibo",
	"Lote medido",
	"Documentos",
}

// WriteDossiers writes one row per view, in the given order, below a header row.
func WriteDossiers(w io.Writer, views []models.MemberView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, v := range views {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rowFor(v)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowFor(v models.MemberView) []interface{} {
	lote := "No"
	if v.IsLoteMedido() {
		lote = "Sí"
	}

	return []interface{}{
		v.ID,
		v.DNI,
		v.Nombres,
		v.ApellidoPaterno,
		v.ApellidoMaterno,
		v.Localidad,
		deref(v.Mz),
		deref(v.Lote),
		string(v.Payment.Status),
		deref(v.Payment.ReceiptNumber),
		lote,
		documentTypes(v.Documents),
	}
}

func documentTypes(docs []models.ValidatedDocument) string {
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		types = append(types, string(d.Type))
	}
	return strings.Join(types, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
