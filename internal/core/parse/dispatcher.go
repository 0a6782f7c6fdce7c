// Package parse turns raw file bytes into records. A Dispatcher picks the
// decoder for a declared type from a fixed table; decoders are stateless.
package parse

import (
	"log/slog"
	"sort"

	"github.com/joseph-ayodele/file-ingestor/constants"
	"github.com/joseph-ayodele/file-ingestor/internal/common"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
)

// Decoder converts bytes plus optional configuration into records.
// Implementations must ignore configuration keys they do not understand.
type Decoder interface {
	Decode(data []byte, cfg map[string]any) ([]entity.Record, error)
}

// Dispatcher routes bytes to the decoder registered for a declared type.
type Dispatcher struct {
	decoders map[string]Decoder
	logger   *slog.Logger
}

// NewDispatcher builds the dispatch table. It is not modified afterwards.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	spreadsheet := XLSXDecoder{}
	return &Dispatcher{
		decoders: map[string]Decoder{
			constants.FileTypeCSV:     CSVDecoder{},
			constants.FileTypeTXT:     TextDecoder{},
			constants.FileTypeJSON:    JSONDecoder{},
			constants.FileTypeXML:     XMLDecoder{},
			constants.FileTypeXLSX:    spreadsheet,
			constants.FileTypeXLS:     spreadsheet,
			constants.FileTypeAvro:    AvroDecoder{},
			constants.FileTypeParquet: ParquetDecoder{},
		},
		logger: logger,
	}
}

// Parse decodes data with the decoder for declaredType.
// An unknown or empty type fails with ErrUnsupportedType and no decoder runs.
func (d *Dispatcher) Parse(data []byte, declaredType string, cfg map[string]any) ([]entity.Record, error) {
	dec, ok := d.decoders[declaredType]
	if !ok {
		d.logger.Warn("unsupported file type", "type", declaredType)
		return nil, common.ParseError(common.ErrUnsupportedType, "type %q", declaredType)
	}
	records, err := dec.Decode(data, cfg)
	if err != nil {
		d.logger.Warn("decode failed", "type", declaredType, "bytes", len(data), "error", err)
		return nil, err
	}
	d.logger.Debug("decoded file", "type", declaredType, "bytes", len(data), "records", len(records))
	return records, nil
}

// Supports reports whether declaredType has a decoder.
func (d *Dispatcher) Supports(declaredType string) bool {
	_, ok := d.decoders[declaredType]
	return ok
}

// Types lists the registered types, sorted.
func (d *Dispatcher) Types() []string {
	out := make([]string, 0, len(d.decoders))
	for t := range d.decoders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
