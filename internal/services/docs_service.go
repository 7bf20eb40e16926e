package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/LixUb/ZoNaTrip/internal/domain/models"
	"github.com/LixUb/ZoNaTrip/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// BuildBookingSummaryPDF renders the customer's booking summary: guest data,
// travel date and the priced order. Identity data is never printed.
func BuildBookingSummaryPDF(rec models.BookingRecord) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Ringkasan Booking "+rec.ID, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "RINGKASAN BOOKING")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Kode Booking   : %s", safe(rec.ID, "-")),
		fmt.Sprintf("Jenis Form     : %s", formTypeLabel(rec.FormType)),
		fmt.Sprintf("Nama           : %s", safe(rec.FullName, "-")),
		fmt.Sprintf("Email          : %s", safe(rec.Email, "-")),
		fmt.Sprintf("No HP          : %s", safe(rec.Phone, "-")),
		fmt.Sprintf("Tanggal        : %s", safe(rec.TravelDate, "-")),
		fmt.Sprintf("Jumlah Tamu    : %d", rec.GuestCount),
		fmt.Sprintf("Tujuan         : %s", safe(rec.Destination, "-")),
		fmt.Sprintf("Dibuat         : %s UTC", rec.CreatedAt.UTC().Format("2006-01-02 15:04")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Pesanan:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	if len(rec.OrderLines) == 0 {
		pdf.Cell(0, 6, "Tidak ada pesanan makanan/minuman.")
		pdf.Ln(6)
	}
	for i, l := range rec.OrderLines {
		pdf.Cell(0, 6, tr(fmt.Sprintf("%d) %s x%d @ %s = %s",
			i+1, l.Name, l.Quantity, utils.FormatRupiah(l.UnitPrice), utils.FormatRupiah(l.LineTotal))))
		pdf.Ln(6)
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+utils.FormatRupiah(rec.TotalPrice))
	pdf.Ln(12)

	if notes := strings.TrimSpace(rec.BookingNotes); notes != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr("Catatan: "+notes), "", "", false)
	}
	if notes := strings.TrimSpace(rec.FoodNotes); notes != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr("Catatan makanan: "+notes), "", "", false)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Simpan kode booking ini. Tim kami akan menghubungi Anda untuk konfirmasi.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("BOOKING_%s.pdf", utils.SafeFilenamePart(rec.ID))
	return buf.Bytes(), filename, nil
}

func formTypeLabel(t models.FormType) string {
	if t == models.FormInternational {
		return "Internasional"
	}
	return "Lokal"
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
