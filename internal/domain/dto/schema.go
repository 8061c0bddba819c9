package dto

import "github.com/portrush/teesheet/internal/domain/entity"

type SchemaReport struct {
	Generation     entity.SchemaGeneration
	Columns        []string
	MissingColumns []string
	LegacyColumns  []string
	RowCount       int64
}
