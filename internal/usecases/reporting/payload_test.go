package reporting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDownloadURL_ConventionTable(t *testing.T) {
	tests := []struct {
		name           string
		payload        interface{}
		wantURL        string
		wantConvention string
		wantOK         bool
	}{
		{
			name:           "result.url (ordens de bolsa)",
			payload:        map[string]interface{}{"result": map[string]interface{}{"url": "https://x/orders.zip"}},
			wantURL:        "https://x/orders.zip",
			wantConvention: "result.url",
			wantOK:         true,
		},
		{
			name:           "response.url (maioria dos relatórios)",
			payload:        map[string]interface{}{"response": map[string]interface{}{"url": "https://x/report.zip"}},
			wantURL:        "https://x/report.zip",
			wantConvention: "response.url",
			wantOK:         true,
		},
		{
			name:           "url no nível raiz (renda fixa)",
			payload:        map[string]interface{}{"url": "https://x/rf.csv"},
			wantURL:        "https://x/rf.csv",
			wantConvention: "url",
			wantOK:         true,
		},
		{
			name:           "result.url tem precedência sobre url",
			payload:        map[string]interface{}{"result": map[string]interface{}{"url": "https://x/a"}, "url": "https://x/b"},
			wantURL:        "https://x/a",
			wantConvention: "result.url",
			wantOK:         true,
		},
		{
			name:           "lista com elemento único",
			payload:        []interface{}{map[string]interface{}{"url": "https://x/single.csv"}},
			wantURL:        "https://x/single.csv",
			wantConvention: "list-unwrap:url",
			wantOK:         true,
		},
		{
			name: "lista com dois elementos usa o segundo",
			payload: []interface{}{
				map[string]interface{}{"errors": []interface{}{}},
				map[string]interface{}{"response": map[string]interface{}{"url": "https://x/second.zip"}},
			},
			wantURL:        "https://x/second.zip",
			wantConvention: "list-unwrap:response.url",
			wantOK:         true,
		},
		{
			name:    "payload sem URL em nenhuma convenção",
			payload: map[string]interface{}{"status": "done"},
			wantOK:  false,
		},
		{
			name:    "lista vazia",
			payload: []interface{}{},
			wantOK:  false,
		},
		{
			name:    "url com tipo inesperado",
			payload: map[string]interface{}{"url": 42},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, convention, ok := ExtractDownloadURL(tt.payload)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantURL, url)
				assert.Equal(t, tt.wantConvention, convention)
			}
		})
	}
}

func TestExtractUpstreamError(t *testing.T) {
	payload := map[string]interface{}{
		"errors": []interface{}{
			map[string]interface{}{"code": "E1", "message": "boom"},
			map[string]interface{}{"code": "E2", "message": "segundo"},
		},
	}

	upstreamErr, ok := ExtractUpstreamError(payload)
	require.True(t, ok)
	assert.Equal(t, "E1", upstreamErr.Code)
	assert.Equal(t, "boom", upstreamErr.Message)
	assert.Contains(t, upstreamErr.Error(), "E1")
}

func TestExtractUpstreamError_AbsentOrEmpty(t *testing.T) {
	_, ok := ExtractUpstreamError(map[string]interface{}{"response": map[string]interface{}{}})
	assert.False(t, ok)

	_, ok = ExtractUpstreamError(map[string]interface{}{"errors": []interface{}{}})
	assert.False(t, ok)

	_, ok = ExtractUpstreamError([]interface{}{})
	assert.False(t, ok)
}
