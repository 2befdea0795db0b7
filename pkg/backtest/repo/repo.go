package repo

import (
	"gorm.io/gorm"
)

type IRepo interface {
	Run() IRun
	Trade() ITrade
	Activity() IActivity
}

type Repo struct {
	resultDB *gorm.DB
}

func NewRepo(resultDB *gorm.DB) IRepo {
	return &Repo{
		resultDB: resultDB,
	}
}

func (r *Repo) Run() IRun {
	return NewRunSQLRepo(r.resultDB)
}

func (r *Repo) Trade() ITrade {
	return NewTradeSQLRepo(r.resultDB)
}

func (r *Repo) Activity() IActivity {
	return NewActivitySQLRepo(r.resultDB)
}
