package btgclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/topinvgroup/partner-reports-api/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client concentra as chamadas autenticadas à API do parceiro: disparo de
// relatórios assíncronos, busca de artefatos e consultas síncronas.
type Client struct {
	cfg        *config.Config
	tokens     *TokenManager
	httpClient *http.Client
}

func NewClient(cfg *config.Config, tokens *TokenManager) *Client {
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RequestReport dispara a geração assíncrona de um relatório. O parceiro
// responde 202 quando aceita o pedido e entrega o resultado depois, via
// webhook; qualquer outro status é tratado como recusa.
func (c *Client) RequestReport(ctx context.Context, method, endpoint string, body interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("erro ao serializar o corpo da requisição: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := c.newAuthenticatedRequest(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("erro ao requisitar o relatório: %w", err)
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
	}).Info("Solicitação de relatório enviada ao parceiro")

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("parceiro recusou a solicitação. Status: %d, Resposta: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// FetchArtifact baixa o artefato apontado pelo webhook. A URL já vem
// pré-assinada, então a chamada não leva headers de autenticação.
func (c *Client) FetchArtifact(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição do artefato: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao baixar o artefato: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("falha ao baixar o artefato. Status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler o corpo do artefato: %w", err)
	}

	logrus.WithField("bytes", len(raw)).Info("Artefato baixado com sucesso")
	return raw, nil
}

// Query executa uma consulta síncrona autenticada e retorna o corpo cru com
// o status recebido, permitindo que o chamador repasse a resposta adiante.
func (c *Client) Query(ctx context.Context, method, endpoint string, body interface{}) ([]byte, int, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("erro ao serializar o corpo da consulta: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := c.newAuthenticatedRequest(ctx, method, endpoint, payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("erro na consulta ao parceiro: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("erro ao ler a resposta do parceiro: %w", err)
	}

	return raw, resp.StatusCode, nil
}

// QueryJSON executa uma consulta síncrona e decodifica a resposta em out.
func (c *Client) QueryJSON(ctx context.Context, method, endpoint string, body, out interface{}) error {
	raw, status, err := c.Query(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("consulta ao parceiro retornou status %d: %s", status, string(raw))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("erro ao decodificar a resposta do parceiro: %w", err)
	}
	return nil
}

// newAuthenticatedRequest monta uma requisição com token renovado e um
// x-id-partner-request novo, exigido pelo parceiro em toda chamada.
func (c *Client) newAuthenticatedRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	token, err := c.tokens.EnsureFresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter token de acesso: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BTG.BaseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar a requisição: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("access_token", token)
	req.Header.Set("x-id-partner-request", uuid.New().String())

	return req, nil
}
