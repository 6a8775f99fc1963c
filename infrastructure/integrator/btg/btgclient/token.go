package btgclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/config"
)

const authEndpoint = "/iaas-auth/api/v1/authorization/oauth2/accesstoken"

// tokenData é o formato persistido no cache em disco.
type tokenData struct {
	AccessToken string  `json:"access_token"`
	ExpiresAt   float64 `json:"expires_at"`
}

func (t tokenData) expired() bool {
	return float64(time.Now().Unix()) >= t.ExpiresAt
}

// TokenManager obtém e cacheia o access_token do parceiro. O token vem no
// header access_token da resposta e a expiração no header expires; além do
// cache em memória, o token é persistido em disco para sobreviver a
// reinícios do processo.
type TokenManager struct {
	cfg        *config.Config
	httpClient *http.Client

	mu    sync.Mutex
	token *tokenData
}

func NewTokenManager(cfg *config.Config) *TokenManager {
	return &TokenManager{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// EnsureFresh retorna um token válido, renovando quando o cacheado expirou.
// Deve ser chamado antes de cada requisição autenticada ao parceiro.
func (tm *TokenManager) EnsureFresh(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.token == nil {
		tm.token = tm.loadCachedToken()
	}

	if tm.token != nil && !tm.token.expired() {
		return tm.token.AccessToken, nil
	}

	token, err := tm.fetchToken(ctx)
	if err != nil {
		return "", err
	}

	tm.token = token
	tm.saveTokenToCache(token)

	return token.AccessToken, nil
}

func (tm *TokenManager) fetchToken(ctx context.Context) (*tokenData, error) {
	if tm.cfg.BTG.AuthBase64 == "" {
		return nil, fmt.Errorf("credencial AUTH_BASE64 não configurada")
	}

	body := url.Values{}
	body.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		tm.cfg.BTG.BaseURL+authEndpoint,
		strings.NewReader(body.Encode()),
	)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição de token: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", "Basic "+tm.cfg.BTG.AuthBase64)
	req.Header.Set("x-id-partner-request", uuid.New().String())

	resp, err := tm.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao requisitar token: %w", err)
	}
	defer resp.Body.Close()

	logrus.WithField("status", resp.StatusCode).Info("Requisição de token concluída")

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("falha ao obter token. Status: %d, Resposta: %s", resp.StatusCode, string(respBody))
	}

	return parseTokenResponse(resp)
}

// parseTokenResponse extrai o token e a expiração dos headers da resposta.
func parseTokenResponse(resp *http.Response) (*tokenData, error) {
	accessToken := resp.Header.Get("access_token")
	if accessToken == "" {
		return nil, fmt.Errorf("header access_token ausente na resposta de autenticação")
	}

	expiresHeader := resp.Header.Get("expires")
	if expiresHeader == "" {
		return nil, fmt.Errorf("header expires ausente na resposta de autenticação")
	}

	expiresAt, err := time.Parse(time.RFC1123, expiresHeader)
	if err != nil {
		return nil, fmt.Errorf("formato inválido no header expires: %w", err)
	}

	return &tokenData{
		AccessToken: accessToken,
		ExpiresAt:   float64(expiresAt.Unix()),
	}, nil
}

func (tm *TokenManager) loadCachedToken() *tokenData {
	raw, err := os.ReadFile(tm.cfg.BTG.TokenCachePath)
	if err != nil {
		return nil
	}

	var token tokenData
	if err := json.Unmarshal(raw, &token); err != nil {
		logrus.WithError(err).Warn("Cache de token ilegível, ignorando")
		return nil
	}

	if token.expired() {
		logrus.Info("Token do cache expirado")
		return nil
	}

	logrus.Info("Token válido carregado do cache")
	return &token
}

func (tm *TokenManager) saveTokenToCache(token *tokenData) {
	raw, err := json.Marshal(token)
	if err != nil {
		logrus.WithError(err).Error("Erro ao serializar token para o cache")
		return
	}

	if err := os.WriteFile(tm.cfg.BTG.TokenCachePath, raw, 0o600); err != nil {
		logrus.WithError(err).Error("Erro ao gravar cache de token")
		return
	}

	logrus.Info("Token gravado no cache com sucesso")
}
