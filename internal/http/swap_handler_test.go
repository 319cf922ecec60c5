package http

import (
	"fmt"
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/domain"
)

func pipelineErr(stage domain.Stage, err error) error {
	return &domain.PipelineError{Stage: stage, Err: err}
}

// Transient upstream failures map to 502 so the caller knows a retry is worth
// it; deterministic pipeline failures stay 500.
func TestWriteSwapErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "wallet not found",
			err:    common.ErrWalletNotFound,
			status: gohttp.StatusNotFound,
		},
		{
			name:   "no route",
			err:    pipelineErr(domain.StageQuoting, common.ErrNoRouteAvailable),
			status: gohttp.StatusNotFound,
		},
		{
			name:   "instruction fetch failure",
			err:    pipelineErr(domain.StageInstructionsFetched, common.ErrInstructionFetchFailed),
			status: gohttp.StatusBadGateway,
		},
		{
			name:   "lookup table unavailable",
			err:    pipelineErr(domain.StageTablesResolved, common.ErrLookupTableUnavailable),
			status: gohttp.StatusBadGateway,
		},
		{
			name:   "submission transport failure",
			err:    pipelineErr(domain.StageBundleSubmitted, common.ErrSubmissionTransport),
			status: gohttp.StatusBadGateway,
		},
		{
			name:   "bundle rejected",
			err:    pipelineErr(domain.StageBundleSubmitted, common.ErrBundleRejected),
			status: gohttp.StatusBadGateway,
		},
		{
			name:   "decode failure",
			err:    pipelineErr(domain.StageInstructionsDecoded, common.ErrDecode),
			status: gohttp.StatusInternalServerError,
		},
		{
			name:   "signing failure",
			err:    pipelineErr(domain.StageSigned, common.ErrSigningFailed),
			status: gohttp.StatusInternalServerError,
		},
		{
			name:   "unknown error",
			err:    fmt.Errorf("boom"),
			status: gohttp.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			writeSwapError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
