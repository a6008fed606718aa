package commission

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

var ledgerHeader = []string{
	"Recipient ID", "Recipient", "Role",
	"Personal Wholesale Orders", "Personal Wholesale Base",
	"Personal Retail Orders", "Personal Retail Base",
	"Sales Wholesale Orders", "Sales Wholesale Base",
	"Sales Retail Orders", "Sales Retail Base",
	"Wholesale Commission", "Retail Commission", "Total Commission",
	"Bonus",
}

// WriteLedgerCSV streams the ledger as CSV: a header row, one row per
// recipient, then one audit row per bonus month. Amounts are plain
// decimals without currency symbols; encoding/csv escapes embedded
// quotes, commas, and newlines.
func WriteLedgerCSV(w io.Writer, rows []LedgerRow) error {
	streamer := newCSVStreamer(w)
	if err := streamer.writeRow(ledgerHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.RecipientID,
			row.RecipientName,
			string(row.Role),
			strconv.Itoa(row.PersonalWholesale.Count), row.PersonalWholesale.Base.StringFixed(2),
			strconv.Itoa(row.PersonalRetail.Count), row.PersonalRetail.Base.StringFixed(2),
			strconv.Itoa(row.SalesWholesale.Count), row.SalesWholesale.Base.StringFixed(2),
			strconv.Itoa(row.SalesRetail.Count), row.SalesRetail.Base.StringFixed(2),
			row.WholesaleCommission.StringFixed(2),
			row.RetailCommission.StringFixed(2),
			row.TotalCommission.StringFixed(2),
			row.Bonus.StringFixed(2),
		}
		if err := streamer.writeRow(record); err != nil {
			return err
		}
		for _, mb := range row.MonthlyBonuses {
			audit := []string{
				row.RecipientID,
				row.RecipientName,
				"bonus:" + mb.Month,
				"", mb.Base.StringFixed(2),
				"", "",
				"", "",
				"", "",
				mb.Raw.StringFixed(2),
				"",
				"",
				mb.Paid.StringFixed(2),
			}
			if err := streamer.writeRow(audit); err != nil {
				return err
			}
		}
	}
	return streamer.Close()
}
