package tabular

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cmlabs-hris/attendance-sync/internal/pkg/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type sheetsStub struct {
	mu     sync.Mutex
	calls  []string
	titles string
	header string
}

func (s *sheetsStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.calls = append(s.calls, r.Method+" "+r.URL.Path)
	s.mu.Unlock()
	_, _ = io.Copy(io.Discard, r.Body)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/sheet-1"):
		_, _ = io.WriteString(w, s.titles)
	case r.Method == http.MethodGet:
		_, _ = io.WriteString(w, s.header)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func newStubTable(t *testing.T, stub *sheetsStub) *SheetTable {
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := sheets.NewClient(context.Background(), "sheet-1",
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return NewSheetTable(client, "Raw Logs", len(RawLogHeader))
}

func TestSheetTable_EnsureHeaderCreatesMissingTab(t *testing.T) {
	stub := &sheetsStub{titles: `{"sheets":[{"properties":{"title":"AllRegister"}}]}`}
	table := newStubTable(t, stub)

	require.NoError(t, table.EnsureHeader(context.Background(), RawLogHeader))

	assert.Equal(t, []string{
		"GET /v4/spreadsheets/sheet-1",
		"POST /v4/spreadsheets/sheet-1:batchUpdate",
		"PUT /v4/spreadsheets/sheet-1/values/'Raw Logs'!A1:F1",
	}, stub.calls)
}

func TestSheetTable_EnsureHeaderKeepsMatchingHeader(t *testing.T) {
	stub := &sheetsStub{
		titles: `{"sheets":[{"properties":{"title":"Raw Logs"}}]}`,
		header: `{"values":[["UserID","UserName","Punch Date","Punch Time","DeviceIP","Type"]]}`,
	}
	table := newStubTable(t, stub)

	require.NoError(t, table.EnsureHeader(context.Background(), RawLogHeader))

	assert.Len(t, stub.calls, 2)
}

func TestSheetTable_EnsureHeaderFixesStaleHeader(t *testing.T) {
	stub := &sheetsStub{
		titles: `{"sheets":[{"properties":{"title":"Raw Logs"}}]}`,
		header: `{"values":[["UserID","Name"]]}`,
	}
	table := newStubTable(t, stub)

	require.NoError(t, table.EnsureHeader(context.Background(), RawLogHeader))

	require.Len(t, stub.calls, 3)
	assert.True(t, strings.HasPrefix(stub.calls[2], "PUT "))
}

func TestSheetTable_UpdateAndRows(t *testing.T) {
	stub := &sheetsStub{header: `{"values":[["E1","A"],[],["E3","C"]]}`}
	table := newStubTable(t, stub)

	rows, err := table.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"E1", "A"}, {}, {"E3", "C"}}, rows)

	require.NoError(t, table.Update(context.Background(), []RowUpdate{{Row: 4, Values: []string{"E3", "Cee"}}}))
	assert.Equal(t, "POST /v4/spreadsheets/sheet-1/values:batchUpdate", stub.calls[1])
}
