package goelastic

// elasticResult reports the number of rows the statement returned; the cluster
// has no DML and no generated keys.
type elasticResult struct {
	affectedRows int64
	insertID     int64
}

func (res *elasticResult) LastInsertId() (int64, error) {
	return res.insertID, nil
}

func (res *elasticResult) RowsAffected() (int64, error) {
	return res.affectedRows, nil
}
