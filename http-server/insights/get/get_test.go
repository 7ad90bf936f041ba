package get

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"printshop-backend/internal/service/insights"
)

type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) OrderInsights(ctx context.Context, w insights.Window) (*insights.OrderInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.OrderInsights), args.Error(1)
}

func (m *MockReporter) EmployeeInsights(ctx context.Context, w insights.Window) (*insights.EmployeeInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.EmployeeInsights), args.Error(1)
}

func (m *MockReporter) ClientInsights(ctx context.Context, w insights.Window) (*insights.ClientInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.ClientInsights), args.Error(1)
}

func (m *MockReporter) ProductInsights(ctx context.Context, w insights.Window) (*insights.ProductInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.ProductInsights), args.Error(1)
}

func (m *MockReporter) FinancialInsights(ctx context.Context, w insights.Window) (*insights.FinancialInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.FinancialInsights), args.Error(1)
}

func (m *MockReporter) AuditInsights(ctx context.Context, w insights.Window) (*insights.AuditInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.AuditInsights), args.Error(1)
}

func (m *MockReporter) DashboardInsights(ctx context.Context, w insights.Window) (*insights.DashboardInsights, error) {
	args := m.Called(ctx, w)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.DashboardInsights), args.Error(1)
}

func TestOrderInsights_ExplicitWindow(t *testing.T) {
	rep := new(MockReporter)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	rep.On("OrderInsights", mock.Anything, insights.Window{Start: start, End: end}).
		Return(&insights.OrderInsights{Period: insights.Window{Start: start, End: end}}, nil)

	handler := OrderInsights(slog.Default(), rep)
	req := httptest.NewRequest(http.MethodGet,
		"/api/insights/orders?startDate=2025-01-01T00:00:00Z&endDate=2025-02-01T00:00:00Z", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Period insights.Window `json:"period"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, start, resp.Data.Period.Start)
	assert.Equal(t, end, resp.Data.Period.End)
	rep.AssertExpectations(t)
}

func TestOrderInsights_DefaultPeriod(t *testing.T) {
	rep := new(MockReporter)
	rep.On("OrderInsights", mock.Anything, mock.MatchedBy(func(w insights.Window) bool {
		return w.End.Sub(w.Start) == 30*24*time.Hour
	})).Return(&insights.OrderInsights{}, nil)

	handler := OrderInsights(slog.Default(), rep)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/insights/orders", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	rep.AssertExpectations(t)
}

func TestOrderInsights_BadWindow(t *testing.T) {
	rep := new(MockReporter)
	handler := OrderInsights(slog.Default(), rep)

	for _, url := range []string{
		"/api/insights/orders?period=14d",
		"/api/insights/orders?startDate=2025-01-01T00:00:00Z",
		"/api/insights/orders?startDate=2025-02-01T00:00:00Z&endDate=2025-01-01T00:00:00Z",
	} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, url)

		var resp Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	}
	rep.AssertNotCalled(t, "OrderInsights", mock.Anything, mock.Anything)
}

func TestDashboardInsights_ServiceFailure(t *testing.T) {
	rep := new(MockReporter)
	rep.On("DashboardInsights", mock.Anything, mock.Anything).
		Return(nil, errors.New("db gone"))

	handler := DashboardInsights(slog.Default(), rep)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/insights/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "failed to build report", resp.Error)
}

func TestFinancialInsights_PeriodToken(t *testing.T) {
	rep := new(MockReporter)
	rep.On("FinancialInsights", mock.Anything, mock.MatchedBy(func(w insights.Window) bool {
		return w.End.Sub(w.Start) == 7*24*time.Hour
	})).Return(&insights.FinancialInsights{}, nil)

	handler := FinancialInsights(slog.Default(), rep)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/insights/financial?period=7d", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	rep.AssertExpectations(t)
}
