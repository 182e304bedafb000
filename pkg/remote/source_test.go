package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ritzau/org-directory/pkg/model"
)

func TestLoadCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("Name,Manager,Country\nA,,UK\nB,A,UK\n"))
	}))
	defer srv.Close()

	src := NewSource(Config{URL: srv.URL + "/export", Timeout: time.Second})
	require.Equal(t, "remote", src.Name())

	records, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "A", records[1].ManagerName)
}

func TestLoadXLSXFromPath(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Employee Name", "Manager Name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Sarah Williams", ""}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Documents/Profiles.xlsx", r.URL.Path)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	records, err := NewSource(Config{URL: srv.URL + "/Documents/Profiles.xlsx"}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Sarah Williams", records[0].Name)
}

func TestLoadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode([]model.Employee{{Name: "A"}, {Name: "B", ManagerName: "A"}})
	}))
	defer srv.Close()

	records, err := NewSource(Config{URL: srv.URL}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestLoadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSource(Config{URL: srv.URL}).Load(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestLoadClientCredentials(t *testing.T) {
	var tokenRequests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			tokenRequests++
			require.NoError(t, r.ParseForm())
			require.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"secret-token","token_type":"bearer","expires_in":3600}`))
		case "/directory.csv":
			if r.Header.Get("Authorization") != "Bearer secret-token" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.Write([]byte("Name\nA\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewSource(Config{
		URL:          srv.URL + "/directory.csv",
		TokenURL:     srv.URL + "/token",
		ClientID:     "org-directory",
		ClientSecret: "s3cret",
		Scopes:       []string{"files.read"},
		Timeout:      time.Second,
	})

	for i := 0; i < 2; i++ {
		records, err := src.Load(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
	}
	require.Equal(t, 1, tokenRequests, "token should be cached between loads")
}

func TestLoadCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Name\nA\n"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(Config{URL: srv.URL + "/x.csv"}).Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Content-Disposition", `attachment; filename="People.xls"`)
	require.Equal(t, "People.xls", fileName(resp, "https://files.example.com/download?id=1"))

	resp = &http.Response{Header: http.Header{}}
	require.Equal(t, "directory.xlsx", fileName(resp, "https://files.example.com/download?id=1"))

	u, _ := url.Parse("https://files.example.com/a/Profiles.csv?version=3")
	require.Equal(t, "Profiles.csv", fileName(resp, u.String()))
}
