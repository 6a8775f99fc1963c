package reporting

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// UpstreamError é o erro estruturado reportado pelo parceiro no corpo do
// webhook, no array errors.
type UpstreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("erro reportado pelo parceiro [%s]: %s", e.Code, e.Message)
}

// ExtractUpstreamError procura o array errors no payload e devolve o primeiro
// elemento como erro estruturado.
func ExtractUpstreamError(payload interface{}) (*UpstreamError, bool) {
	body, ok := payload.(map[string]interface{})
	if !ok {
		return nil, false
	}

	raw, ok := body["errors"].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, false
	}

	first, ok := raw[0].(map[string]interface{})
	if !ok {
		return &UpstreamError{Message: "erro sem detalhes"}, true
	}

	return &UpstreamError{
		Code:    stringField(first, "code"),
		Message: stringField(first, "message"),
	}, true
}

// urlStrategy é uma convenção de localização da URL do artefato no payload.
type urlStrategy struct {
	name    string
	extract func(map[string]interface{}) string
}

// Convenções na ordem em que os relatórios do parceiro as utilizam: ordens de
// bolsa usam result.url, a maioria dos relatórios usa response.url e os de
// renda fixa trazem url no nível raiz.
var urlStrategies = []urlStrategy{
	{"result.url", func(m map[string]interface{}) string { return nestedURL(m, "result") }},
	{"response.url", func(m map[string]interface{}) string { return nestedURL(m, "response") }},
	{"url", func(m map[string]interface{}) string { return stringField(m, "url") }},
}

// ExtractDownloadURL percorre as convenções conhecidas e retorna a URL do
// artefato, o nome da convenção que casou e se houve casamento. Payloads em
// forma de lista são desembrulhados (elemento único, ou o segundo quando o
// primeiro é um erro) e reavaliados.
func ExtractDownloadURL(payload interface{}) (string, string, bool) {
	if body, ok := payload.(map[string]interface{}); ok {
		if url, convention, ok := matchStrategies(body, ""); ok {
			return url, convention, true
		}
	}

	if list, ok := payload.([]interface{}); ok && len(list) > 0 {
		// Com dois elementos, assume-se que o primeiro é o erro.
		candidate := list[0]
		if len(list) > 1 {
			candidate = list[1]
		}
		if body, ok := candidate.(map[string]interface{}); ok {
			return matchStrategies(body, "list-unwrap:")
		}
	}

	return "", "", false
}

func matchStrategies(body map[string]interface{}, prefix string) (string, string, bool) {
	for _, strategy := range urlStrategies {
		if url := strategy.extract(body); url != "" {
			convention := prefix + strategy.name
			logrus.WithField("convention", convention).Info("URL do artefato localizada no payload")
			return url, convention, true
		}
	}
	return "", "", false
}

func nestedURL(body map[string]interface{}, key string) string {
	nested, ok := body[key].(map[string]interface{})
	if !ok {
		return ""
	}
	return stringField(nested, "url")
}

func stringField(body map[string]interface{}, key string) string {
	v, _ := body[key].(string)
	return v
}
