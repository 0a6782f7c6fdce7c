package constants

import "strings"

// Declared file types understood by the parser dispatcher.
const (
	FileTypeCSV     = "csv"
	FileTypeTXT     = "txt"
	FileTypeJSON    = "json"
	FileTypeXML     = "xml"
	FileTypeXLSX    = "xlsx"
	FileTypeXLS     = "xls"
	FileTypeAvro    = "avro"
	FileTypeParquet = "parquet"
)

// FileTypes lists every supported declared type.
var FileTypes = []string{
	FileTypeCSV,
	FileTypeTXT,
	FileTypeJSON,
	FileTypeXML,
	FileTypeXLSX,
	FileTypeXLS,
	FileTypeAvro,
	FileTypeParquet,
}

// AllowedExtensions is the default filter for local discovery (watch mode, process-dir).
var AllowedExtensions = func() map[string]struct{} {
	m := make(map[string]struct{}, len(FileTypes))
	for _, t := range FileTypes {
		m[t] = struct{}{}
	}
	return m
}()

// DeclaredType returns the lower-cased text after the last '.' in key,
// or "" when the key has no '.'.
func DeclaredType(key string) string {
	i := strings.LastIndexByte(key, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(key[i+1:])
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
