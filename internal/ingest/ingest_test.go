package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/AngelCh415/adreport/internal/models"
)

const sampleCSV = "\ufeff광고 노출 지면,노출수,클릭수,광고비,총 판매수량(14일)\n" +
	"검색 영역,\"1,000\",50,\"5,000\",2\n" +
	",,,,\n" +
	"비검색 영역,300,3\n"

func TestDecodeCSV(t *testing.T) {
	tbl, err := Decode("report.CSV", []byte(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"광고 노출 지면", "노출수", "클릭수", "광고비", "총 판매수량(14일)"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2, "blank rows are dropped")
	assert.Equal(t, "1,000", tbl.Rows[0]["노출수"])
	assert.Equal(t, "", tbl.Rows[1]["광고비"], "short rows are padded")
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"키워드", "노출수", "클릭수", "광고비", "판매수량"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"운동화", 1000, 20, 4000, 1}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"러닝화", 500, 5, 1500, 0}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	tbl, err := Decode("coupang.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "키워드", tbl.Columns[0])
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, models.RawRecord{"키워드": "러닝화", "노출수": "500", "클릭수": "5", "광고비": "1500", "판매수량": "0"}, tbl.Rows[1])
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("report.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = Decode("empty.csv", nil)
	assert.Error(t, err)

	_, err = Decode("broken.xlsx", []byte("not a zip"))
	assert.ErrorContains(t, err, "open excel")
}

func TestFetchUsesContentDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="ads_14d.csv"`)
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	name, body, err := NewFetcher(NewHTTPClient(2*time.Second), 0).Fetch(context.Background(), srv.URL+"/export")
	require.NoError(t, err)
	assert.Equal(t, "ads_14d.csv", name)
	assert.Equal(t, sampleCSV, string(body))
}

func TestFetchRetries500(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	name, _, err := NewFetcher(NewHTTPClient(2*time.Second), 0).Fetch(context.Background(), srv.URL+"/r.csv")
	require.NoError(t, err)
	assert.Equal(t, "r.csv", name)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchDoesNotRetry404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, _, err := NewFetcher(NewHTTPClient(2*time.Second), 0).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPClient(50*time.Millisecond), 0)
	_, _, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchLimitsSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, _, err := NewFetcher(NewHTTPClient(time.Second), 10).Fetch(context.Background(), srv.URL+"/big.csv")
	assert.ErrorContains(t, err, "larger than")

	_, _, err = NewFetcher(NewHTTPClient(time.Second), 10).Fetch(context.Background(), "ftp://example.com/x.csv")
	assert.Error(t, err)
}
