package corpus

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/kbukum/asrkit/errors"
)

// DefaultReportName is the CSV file written into the scanned directory.
const DefaultReportName = "wer_results_werpy.csv"

// Header is the CSV header row.
var Header = []string{
	"Reference File",
	"Hypothesis File",
	"Word Error Rate",
	"reference_word_count",
	"ASR_word_count",
}

// Row is the score of one reference/hypothesis pair.
type Row struct {
	ReferenceFile       string  `json:"reference_file"`
	HypothesisFile      string  `json:"hypothesis_file"`
	WordErrorRate       float64 `json:"word_error_rate"`
	ReferenceWordCount  int     `json:"reference_word_count"`
	HypothesisWordCount int     `json:"asr_word_count"`
}

// Failure records a pair that could not be scored.
type Failure struct {
	ReferenceFile  string           `json:"reference_file"`
	HypothesisFile string           `json:"hypothesis_file"`
	Code           errors.ErrorCode `json:"code"`
	Message        string           `json:"message"`
	Err            error            `json:"-"`
}

func newFailure(ref, hyp string, err error) Failure {
	return Failure{
		ReferenceFile:  ref,
		HypothesisFile: hyp,
		Code:           errors.Wrap(err).Code,
		Message:        err.Error(),
		Err:            err,
	}
}

// Report is the outcome of one aggregation run.
type Report struct {
	RunID      string        `json:"run_id"`
	Directory  string        `json:"directory"`
	ReportPath string        `json:"report_path,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	Pairings   []Pairing     `json:"pairings"`
	Rows       []Row         `json:"rows"`
	Failures   []Failure     `json:"failures"`
	Unmatched  []string      `json:"unmatched"`
}

// MeanWER returns the unweighted mean of the row error rates, or 0.
func (r *Report) MeanWER() float64 {
	if len(r.Rows) == 0 {
		return 0
	}
	var sum float64
	for _, row := range r.Rows {
		sum += row.WordErrorRate
	}
	return sum / float64(len(r.Rows))
}

// CorpusWER returns the error rate weighted by reference length: total
// edit operations over total reference words.
func (r *Report) CorpusWER() float64 {
	var errs float64
	var words int
	for _, row := range r.Rows {
		errs += row.WordErrorRate * float64(row.ReferenceWordCount)
		words += row.ReferenceWordCount
	}
	if words == 0 {
		return 0
	}
	return errs / float64(words)
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write([]string{
			row.ReferenceFile,
			row.HypothesisFile,
			strconv.FormatFloat(row.WordErrorRate, 'f', -1, 64),
			strconv.Itoa(row.ReferenceWordCount),
			strconv.Itoa(row.HypothesisWordCount),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV returns the CSV document for rows.
func EncodeCSV(rows []Row) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ReadCSV parses a report written by WriteCSV.
func ReadCSV(r io.Reader) ([]Row, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.InvalidFormat("WER report", "CSV").WithCause(err)
	}
	if len(records) == 0 {
		return nil, errors.InvalidFormat("WER report", "a header row")
	}
	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(Header) {
			return nil, errors.InvalidFormat("WER report", "5 columns").WithDetail("line", i+2)
		}
		w, err1 := strconv.ParseFloat(rec[2], 64)
		rc, err2 := strconv.Atoi(rec[3])
		hc, err3 := strconv.Atoi(rec[4])
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, errors.InvalidFormat("WER report", "numeric score columns").WithDetail("line", i+2)
		}
		rows = append(rows, Row{
			ReferenceFile:       rec[0],
			HypothesisFile:      rec[1],
			WordErrorRate:       w,
			ReferenceWordCount:  rc,
			HypothesisWordCount: hc,
		})
	}
	return rows, nil
}
