package reportgen

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/analytics"
	"ppetrack/pkg/logger"
)

// utf8BOM is prepended to every CSV so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const csvContentType = "text/csv; charset=utf-8"

// ExportFile is one rendered export awaiting upload.
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func renderCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func fmtDate(t time.Time) string { return t.Format("2006-01-02") }

// BuildWeeklyExports renders the five weekly delimited files: entries, exits,
// accidents, labor hours and the current stock snapshot.
func BuildWeeklyExports(res *BuildResult) ([]ExportFile, error) {
	entryRows := make([][]string, 0, len(res.PeriodEntries))
	for i := range res.PeriodEntries {
		m := &res.PeriodEntries[i]
		entryRows = append(entryRows, []string{
			fmtDate(m.OccurredAt),
			res.MaterialNames[m.MaterialID],
			fmtFloat(m.Quantity),
			m.StorageLocation,
		})
	}

	exitRows := make([][]string, 0, len(res.PeriodExits))
	for i := range res.PeriodExits {
		m := &res.PeriodExits[i]
		exchange := ""
		if m.ExchangeAt != nil {
			exchange = fmtDate(*m.ExchangeAt)
		}
		exitRows = append(exitRows, []string{
			fmtDate(m.OccurredAt),
			res.MaterialNames[m.MaterialID],
			fmtFloat(m.Quantity),
			m.PersonName,
			m.Department,
			m.CostCenter,
			exchange,
		})
	}

	accidentRows := make([][]string, 0, len(res.Accidents))
	for i := range res.Accidents {
		a := &res.Accidents[i]
		accidentRows = append(accidentRows, []string{
			fmtDate(a.OccurredAt),
			a.PersonName,
			a.Department,
			a.Kind,
			strconv.Itoa(a.DaysOff),
			a.Description,
		})
	}

	laborRows := make([][]string, 0, len(res.LaborMonths))
	for i := range res.LaborMonths {
		l := &res.LaborMonths[i]
		laborRows = append(laborRows, []string{
			strconv.Itoa(l.Year),
			strconv.Itoa(l.Month),
			strconv.Itoa(l.HeadCount),
			fmtFloat(l.Hours),
		})
	}

	stockRows := make([][]string, 0, len(res.Items))
	for i := range res.Items {
		it := &res.Items[i]
		alert := "nao"
		if it.Alert {
			alert = "sim"
		}
		stockRows = append(stockRows, []string{
			it.Name,
			it.Category,
			it.StorageLocation,
			fmtFloat(it.Balance),
			fmtFloat(it.MinimumStock),
			fmtFloat(it.Deficit),
			it.RestockValue.StringFixed(2),
			alert,
		})
	}

	specs := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"entradas.csv", []string{"data", "material", "quantidade", "local_estoque"}, entryRows},
		{"saidas.csv", []string{"data", "material", "quantidade", "pessoa", "setor", "centro_custo", "troca_prevista"}, exitRows},
		{"acidentes.csv", []string{"data", "pessoa", "setor", "tipo", "dias_afastamento", "descricao"}, accidentRows},
		{"horas_trabalhadas.csv", []string{"ano", "mes", "efetivo", "horas"}, laborRows},
		{"estoque_atual.csv", []string{"material", "categoria", "local_estoque", "saldo", "estoque_minimo", "deficit", "valor_reposicao", "alerta"}, stockRows},
	}

	files := make([]ExportFile, 0, len(specs))
	for _, s := range specs {
		data, err := renderCSV(s.header, s.rows)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", s.name, err)
		}
		files = append(files, ExportFile{Name: s.name, ContentType: csvContentType, Data: data})
	}
	return files, nil
}

// ExportObjectName builds the deterministic object path of one export file.
// Re-running a period overwrites the same objects.
func ExportObjectName(slug string, p Period, filename string) string {
	return fmt.Sprintf("%s/relatorios/%s/%s/%s", slug, p.Type, p.Label(), filename)
}

// UploadExports pushes all files to blob storage. On failure the files
// already uploaded in this call are deleted (best effort) so a period never
// keeps a partial export set.
func UploadExports(ctx context.Context, store BlobStore, slug string, p Period, files []ExportFile) ([]Attachment, error) {
	uploaded := make([]Attachment, 0, len(files))
	for _, f := range files {
		object := ExportObjectName(slug, p, f.Name)
		url, err := store.Upload(ctx, object, f.ContentType, f.Data)
		if err != nil {
			cleanupUploads(ctx, store, uploaded)
			return nil, apperror.NewStorage(fmt.Errorf("upload %s: %w", object, err))
		}
		uploaded = append(uploaded, Attachment{
			Name:        f.Name,
			ObjectName:  object,
			URL:         url,
			ContentType: f.ContentType,
			Size:        len(f.Data),
		})
	}
	return uploaded, nil
}

func cleanupUploads(ctx context.Context, store BlobStore, uploaded []Attachment) {
	for _, att := range uploaded {
		if err := store.Delete(ctx, att.ObjectName); err != nil {
			logger.Warn(ctx, "failed to delete partial export", "object", att.ObjectName, "error", err)
		}
	}
}

// BuildInventoryXLSX renders the full stock snapshot as a spreadsheet for the
// on-demand include-all export endpoint.
func BuildInventoryXLSX(items []analytics.StockBalanceItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Estoque"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	headers := []string{"Material", "Categoria", "Local", "Saldo", "Estoque minimo", "Deficit", "Valor reposicao", "Alerta", "Ultima movimentacao"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", endHeader, headerStyle); err != nil {
		return nil, err
	}

	for row, it := range items {
		last := ""
		if it.LastMovementAt != nil {
			last = fmtDate(*it.LastMovementAt)
		}
		alert := "nao"
		if it.Alert {
			alert = "sim"
		}
		values := []any{
			it.Name, it.Category, it.StorageLocation,
			it.Balance, it.MinimumStock, it.Deficit,
			it.RestockValue.InexactFloat64(), alert, last,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "B", "I", 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
