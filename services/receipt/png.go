package receiptsvc

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/camposdev/unipagos/core"
	"github.com/camposdev/unipagos/core/payment"
)

// Layout constants
const (
	imageWidth   = 640
	imageHeight  = 420
	marginX      = 40.0
	headerHeight = 90.0
	lineHeight   = 34.0
	labelWidth   = 150.0
)

var (
	bgColor     = color.RGBA{250, 250, 252, 255}
	headerColor = color.RGBA{26, 54, 104, 255}
	headerText  = color.RGBA{255, 255, 255, 255}
	labelColor  = color.RGBA{110, 115, 120, 255}
	valueColor  = color.RGBA{30, 34, 40, 255}
	ruleColor   = color.RGBA{200, 204, 210, 255}
	totalColor  = color.RGBA{16, 92, 44, 255}
)

type pngRenderer struct {
	appName string
}

var _ payment.ReceiptRenderer = (*pngRenderer)(nil)

// NewPNGRenderer renders fixed-layout payment receipts as PNG images.
func NewPNGRenderer(conf *core.Config) payment.ReceiptRenderer {
	return &pngRenderer{appName: conf.AppName}
}

func (svc *pngRenderer) Render(r payment.Receipt) ([]byte, error) {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)

	// background
	dc.SetColor(bgColor)
	dc.Clear()

	// header band
	dc.SetColor(headerColor)
	dc.DrawRectangle(0, 0, imageWidth, headerHeight)
	dc.Fill()
	dc.SetColor(headerText)
	dc.DrawString(svc.appName+" · Recibo de Pago", marginX, 38)
	dc.DrawString("Folio: "+r.Folio, marginX, 66)

	rows := []struct {
		label string
		value string
	}{
		{"Fecha", r.Date.Format("02/01/2006 15:04")},
		{"Alumno", r.PayerName},
		{"Matrícula", r.Matricula},
		{"Concepto", r.Concept},
		{"Método de pago", r.Method},
	}

	y := headerHeight + 50
	for _, row := range rows {
		dc.SetColor(labelColor)
		dc.DrawString(row.label, marginX, y)
		dc.SetColor(valueColor)
		dc.DrawString(row.value, marginX+labelWidth, y)
		y += lineHeight
	}

	// total
	dc.SetColor(ruleColor)
	dc.DrawLine(marginX, y, imageWidth-marginX, y)
	dc.SetLineWidth(1)
	dc.Stroke()
	y += lineHeight
	dc.SetColor(labelColor)
	dc.DrawString("Total pagado", marginX, y)
	dc.SetColor(totalColor)
	dc.DrawString(fmt.Sprintf("$%.2f MXN", r.Amount), marginX+labelWidth, y)

	y += lineHeight + 10
	dc.SetColor(labelColor)
	dc.DrawString("Este comprobante fue generado electrónicamente.", marginX, y)

	var buff bytes.Buffer
	if err := dc.EncodePNG(&buff); err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}
