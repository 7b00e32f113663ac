package store

// RepoStats summarizes what the graph holds for one repository.
type RepoStats struct {
	Files         int
	Symbols       int
	Refs          int
	SymbolsByKind map[string]int
	RefsByType    map[string]int
}

// Stats computes per-repository graph statistics.
func (s *Store) Stats(repoID int64) (*RepoStats, error) {
	st := &RepoStats{}

	if err := s.q.QueryRow("SELECT COUNT(*) FROM files WHERE repo_id=?", repoID).Scan(&st.Files); err != nil {
		return nil, err
	}
	if err := s.q.QueryRow("SELECT COUNT(*) FROM symbols WHERE repo_id=?", repoID).Scan(&st.Symbols); err != nil {
		return nil, err
	}
	if err := s.q.QueryRow("SELECT COUNT(*) FROM refs WHERE repo_id=?", repoID).Scan(&st.Refs); err != nil {
		return nil, err
	}

	var err error
	st.SymbolsByKind, err = s.groupCount(
		"SELECT kind, COUNT(*) FROM symbols WHERE repo_id=? GROUP BY kind", repoID)
	if err != nil {
		return nil, err
	}
	st.RefsByType, err = s.groupCount(
		"SELECT type, COUNT(*) FROM refs WHERE repo_id=? GROUP BY type", repoID)
	if err != nil {
		return nil, err
	}
	return st, nil
}
