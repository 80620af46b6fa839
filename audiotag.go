package audiotag

// Get returns the resolved value of one entry.
func Get(path string, e MetaEntry) (string, error) {
	r, err := OpenReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return r.GetMetaEntry(e)
}

// ReadAll returns the resolved view of every entry with a value.
func ReadAll(path string) (map[MetaEntry]string, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.AllEntries(), nil
}

// Set stages the given entries and saves the file.
func Set(path string, entries map[MetaEntry]string) error {
	w, err := OpenWriter(path)
	if err != nil {
		return err
	}
	for e, v := range entries {
		if err := w.SetMetaEntry(e, v); err != nil {
			return err
		}
	}
	return w.Save()
}
