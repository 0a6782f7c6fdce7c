package entity

// FileReference identifies one object: the container (bucket or root directory) and its key.
type FileReference struct {
	Container string `json:"container"`
	Key       string `json:"key"`
}

// FileName is the provenance value stored in every record's file_name field.
func (f FileReference) FileName() string {
	return f.Container + "/" + f.Key
}

func (f FileReference) String() string { return f.FileName() }
