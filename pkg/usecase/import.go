package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/utils/async"
	"github.com/secmon-lab/intake/pkg/utils/logging"
	"github.com/secmon-lab/intake/pkg/utils/safe"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/japanese"
)

// ImportFormat is the file format of a bulk import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportFormatFromFileName picks the format by file extension
func ImportFormatFromFileName(name string) (ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ImportFormatCSV, nil
	case ".xlsx":
		return ImportFormatXLSX, nil
	default:
		return "", goerr.Wrap(ErrInvalidInput, "unsupported import file, use .csv or .xlsx", goerr.V(FieldKey, "file"), goerr.V("name", name))
	}
}

// ImportSkip describes a row that was not imported
type ImportSkip struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Imported []*model.Case `json:"-"`
	Count    int           `json:"count"`
	Skipped  []ImportSkip  `json:"skipped"`
}

const importSkipInvalidNumber = "番号不正"

type ImportUseCase struct {
	repo       interfaces.Repository
	dispatcher *DispatchUseCase
	async      async.Func
	location   *time.Location
	now        func() time.Time
}

func NewImportUseCase(repo interfaces.Repository, dispatcher *DispatchUseCase, asyncFn async.Func, loc *time.Location) *ImportUseCase {
	if asyncFn == nil {
		asyncFn = async.Dispatch
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ImportUseCase{
		repo:       repo,
		dispatcher: dispatcher,
		async:      asyncFn,
		location:   loc,
		now:        time.Now,
	}
}

// Import reads legacy case rows and stores them with their own numbers. The
// first row is a header. The counter is not touched, so it should be
// initialized past the largest imported number afterwards.
func (uc *ImportUseCase) Import(ctx context.Context, r io.Reader, format ImportFormat) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch format {
	case ImportFormatCSV:
		rows, err = readCSV(r)
	case ImportFormatXLSX:
		rows, err = readXLSX(ctx, r)
	default:
		return nil, goerr.Wrap(ErrInvalidInput, "unsupported import format", goerr.V("format", format))
	}
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	now := uc.now().UTC()
	result := &ImportResult{Skipped: []ImportSkip{}}
	var cases []*model.Case

	for i, cells := range rows {
		if i == 0 {
			continue
		}
		row := model.NewImportRow(cells)
		if row.IsBlank() {
			continue
		}

		c, err := row.ToCase(uc.location, now)
		if errors.Is(err, model.ErrInvalidImportNumber) {
			logger.Warn("❌ スキップ: 番号不正", "line", i+1, "name", row.Name, "number", row.Number)
			result.Skipped = append(result.Skipped, ImportSkip{Line: i + 1, Name: row.Name, Reason: importSkipInvalidNumber})
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert import row", goerr.V(LineKey, i+1))
		}
		cases = append(cases, c)
	}

	if len(cases) == 0 {
		return result, nil
	}

	imported, err := uc.repo.Case().Import(ctx, cases)
	// rows committed before a failure still get their creation side effect
	uc.dispatchImported(ctx, imported)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to import cases",
			goerr.V("count", len(cases)),
			goerr.V("committed", len(imported)))
	}
	result.Imported = imported
	result.Count = len(imported)
	logger.Info("cases imported", "count", result.Count, "skipped", len(result.Skipped))

	return result, nil
}

func (uc *ImportUseCase) dispatchImported(ctx context.Context, imported []*model.Case) {
	if uc.dispatcher == nil {
		return
	}
	for _, c := range imported {
		if c.DocumentURL != "" {
			continue
		}
		id := c.ID
		uc.async(ctx, func(ctx context.Context) error {
			return uc.dispatcher.HandleCaseCreated(ctx, id)
		})
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV accepts UTF-8 (with or without BOM) and Shift_JIS, the encoding
// Excel uses for Japanese CSV exports
func readCSV(r io.Reader) ([][]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read csv")
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidInput, "csv is neither UTF-8 nor Shift_JIS", goerr.V("error", err.Error()))
		}
		raw = decoded
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "malformed csv", goerr.V("error", err.Error()))
	}
	return rows, nil
}

func readXLSX(ctx context.Context, r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidInput, "failed to open xlsx", goerr.V("error", err.Error()))
	}
	defer safe.Close(ctx, f)

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, goerr.Wrap(ErrInvalidInput, "xlsx has no sheet")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read xlsx rows", goerr.V("sheet", sheets[0]))
	}
	return rows, nil
}
