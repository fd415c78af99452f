package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestErrorKinds_MessagesAndUnwrap verifies error formatting and wrapping
func TestErrorKinds_MessagesAndUnwrap(t *testing.T) {
	notFound := &PortNotFoundError{UNLocode: "XXXXX"}
	assert.Contains(t, notFound.Error(), "XXXXX")

	inactive := &PortNotFoundError{UNLocode: "NLRTM", Reason: "not active (status maintenance)"}
	assert.Contains(t, inactive.Error(), "maintenance")

	vessel := &VesselConstraintError{Reason: "draft exceeds port limit"}
	assert.Contains(t, vessel.Error(), "draft")

	noRoute := &NoRouteError{Origin: "SGSIN", Destination: "NLRTM"}
	assert.Contains(t, noRoute.Error(), "SGSIN")
	assert.Contains(t, noRoute.Error(), "NLRTM")

	timeout := &CalculationTimeoutError{Timeout: 30 * time.Second}
	assert.Contains(t, timeout.Error(), "30s")

	cause := fmt.Errorf("connection refused")
	upstream := &UpstreamFailureError{Operation: "get_port", Err: cause}
	assert.ErrorIs(t, upstream, cause)
	assert.Contains(t, upstream.Error(), "get_port")
}

// TestErrorKinds_ErrorsAs verifies errors.As discrimination through wrapping
func TestErrorKinds_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("calculation failed: %w", &NoRouteError{Origin: "A", Destination: "B"})

	var noRoute *NoRouteError
	assert.True(t, errors.As(wrapped, &noRoute))

	var timeout *CalculationTimeoutError
	assert.False(t, errors.As(wrapped, &timeout))
}
