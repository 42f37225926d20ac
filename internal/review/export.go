package review

import (
	"encoding/csv"
	"io"
	"strconv"

	"reviewsearch/internal/domain"
)

var exportHeader = []string{"rank", "score", "text", "sentiment", "category", "rating", "product"}

// WriteCSV writes records in retrieval order. Missing ratings are left blank.
func WriteCSV(w io.Writer, records []domain.ReviewRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i, r := range records {
		rating := ""
		if r.Rating != nil {
			rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
		}
		row := []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(r.Score, 'f', 4, 64),
			r.Text,
			string(r.Sentiment),
			r.Category,
			rating,
			r.Product,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
