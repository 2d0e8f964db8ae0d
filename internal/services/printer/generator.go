package printer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// ErrNoLabels is returned when there is nothing to print.
var ErrNoLabels = errors.New("no unit loads to print")

// Layout describes the label grid on an A4 sheet (mm).
type Layout struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLayout is a 3x7 sheet of adhesive labels.
func DefaultLayout() Layout {
	return Layout{Cols: 3, Rows: 7, MarginTop: 10, MarginLeft: 5, GapX: 2, GapY: 2}
}

func (l Layout) normalized() Layout {
	d := DefaultLayout()
	if l.Cols <= 0 {
		l.Cols = d.Cols
	}
	if l.Rows <= 0 {
		l.Rows = d.Rows
	}
	return l
}

// Label is one printed unit load.
type Label struct {
	LPNNumber string
	SKUCode   string
	Batch     string
	Qty       int
	Location  string
}

// LabelFromRecord builds a label for a stored unit load.
func LabelFromRecord(r models.UnitLoadRecord, skuCode string) Label {
	if skuCode == "" {
		skuCode = r.SKUID
	}
	return Label{LPNNumber: r.LPNNumber, SKUCode: skuCode, Batch: r.BatchNumber, Qty: r.HUQty, Location: r.Location}
}

// GenerateLabelsPDF renders one QR label per unit load, filling pages row by
// row. The QR payload is the LPN number.
func GenerateLabelsPDF(labels []Label, layout Layout) ([]byte, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	layout = layout.normalized()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)

	pageWidth, pageHeight := 210.0, 297.0
	availW := pageWidth - layout.MarginLeft*2
	availH := pageHeight - layout.MarginTop*2
	labelW := (availW - float64(layout.Cols-1)*layout.GapX) / float64(layout.Cols)
	labelH := (availH - float64(layout.Rows-1)*layout.GapY) / float64(layout.Rows)
	perPage := layout.Cols * layout.Rows

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}

	for i, lbl := range labels {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		slot := i % perPage
		x := layout.MarginLeft + float64(slot%layout.Cols)*(labelW+layout.GapX)
		y := layout.MarginTop + float64(slot/layout.Cols)*(labelH+layout.GapY)

		png, err := qrcode.Encode(lbl.LPNNumber, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode qr for %s: %w", lbl.LPNNumber, err)
		}
		imgName := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(png))

		// QR on the left half, text on the right
		qrSize := labelH * 0.8
		if qrSize > labelW/2 {
			qrSize = labelW / 2
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3
		pdf.SetXY(textX, y+2)
		pdf.SetFontSize(9)
		pdf.CellFormat(textW, 5, lbl.LPNNumber, "", 2, "L", false, 0, "")
		pdf.SetFontSize(7)
		pdf.SetX(textX)
		pdf.CellFormat(textW, 4, lbl.SKUCode, "", 2, "L", false, 0, "")
		if lbl.Batch != "" {
			pdf.SetX(textX)
			pdf.CellFormat(textW, 4, "Batch "+lbl.Batch, "", 2, "L", false, 0, "")
		}
		pdf.SetX(textX)
		pdf.CellFormat(textW, 4, fmt.Sprintf("Qty %d", lbl.Qty), "", 2, "L", false, 0, "")
		if lbl.Location != "" {
			pdf.SetX(textX)
			pdf.CellFormat(textW, 4, lbl.Location, "", 2, "L", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render labels: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
