package services

import (
	"dream100/prospect-intel-worker/internal/dto"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

const notAvailable = "N/A"

// reportRow is one CSV line of a batch report
type reportRow struct {
	Company   string `csv:"Company"`
	FirstName string `csv:"First Name"`
	LastName  string `csv:"Last Name"`
	Title     string `csv:"Title"`
	Email     string `csv:"Email"`
	Website   string `csv:"Website"`
	Document1 string `csv:"Document 1"`
	Document2 string `csv:"Document 2"`
}

// BuildReportCSV renders batch results in submission order. Missing values become N/A.
func BuildReportCSV(results []dto.BatchResult) ([]byte, error) {
	rows := make([]reportRow, len(results))
	for i, r := range results {
		rows[i] = reportRow{
			Company:   orNA(r.Company),
			FirstName: orNA(r.FirstName),
			LastName:  orNA(r.LastName),
			Title:     orNA(r.Title),
			Email:     orNA(r.Email),
			Website:   orNA(r.Website),
			Document1: linkOrNA(r.Document1URL),
			Document2: linkOrNA(r.Document2URL),
		}
	}

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode report")
	}
	return data, nil
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func linkOrNA(s *string) string {
	if s == nil {
		return notAvailable
	}
	return orNA(*s)
}
