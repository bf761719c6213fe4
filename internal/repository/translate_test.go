package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	appErr "github.com/av-estimator/engine/pkg/errors"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code appErr.Code
	}{
		{"not found", gorm.ErrRecordNotFound, appErr.CodeNotFound},
		{"duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), appErr.CodeAlreadyExists},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, appErr.CodeConflict},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, appErr.CodeConflict},
		{"other pg error", &pgconn.PgError{Code: "22P02"}, appErr.CodeInternal},
		{"plain", errors.New("boom"), appErr.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, appErr.CodeOf(translate(tc.err, "project", "save")))
		})
	}
}
