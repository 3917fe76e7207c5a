// Package main - Atlas GORM migration support binary
package main

import (
	"fmt"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/apex/log"
	"github.com/carelock/carelock/db"
)

func main() {
	stmts, err := gormschema.New("postgres").Load(
		&db.SystemEventAuditDBEntry{},
		&db.UserDBEntry{},
		&db.HealthRecordDBEntry{},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to load GORM models")
	}
	fmt.Printf("%s\n", stmts)
}
