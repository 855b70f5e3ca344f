package validator

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// HTTPValidator validates a secret by issuing the request a rule's
// HTTPValidationSpec describes. One HTTPValidator instance is built per
// rule that declares a Validation spec.
type HTTPValidator struct {
	ruleID string
	spec   *types.HTTPValidationSpec
	client *http.Client
}

// NewHTTPValidator builds a validator bound to a single rule's
// Validation spec.
func NewHTTPValidator(ruleID string, spec *types.HTTPValidationSpec, client *http.Client) *HTTPValidator {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPValidator{ruleID: ruleID, spec: spec, client: client}
}

func (v *HTTPValidator) CanValidate(ruleID string) bool { return ruleID == v.ruleID }

func (v *HTTPValidator) Validate(ctx context.Context, match *types.Match) (*types.ValidationResult, error) {
	secret, err := v.extractSecret(match)
	if err != nil {
		return types.NewValidationResult(types.StatusUndetermined, 0, err.Error()), nil
	}

	allVars := templateVars(match.NamedGroups)
	url := substituteTemplateVars(v.spec.URL, allVars)

	var body io.Reader
	if v.spec.Body != "" {
		body = strings.NewReader(substituteTemplateVars(v.spec.Body, allVars))
	}

	req, err := http.NewRequestWithContext(ctx, v.spec.Method, url, body)
	if err != nil {
		return types.NewValidationResult(types.StatusUndetermined, 0, fmt.Sprintf("failed to create request: %v", err)), nil
	}

	if err := v.applyAuth(req, secret); err != nil {
		return types.NewValidationResult(types.StatusUndetermined, 0, err.Error()), nil
	}
	for name, value := range v.spec.Headers {
		req.Header.Set(name, substituteTemplateVars(value, allVars))
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return types.NewValidationResult(types.StatusUndetermined, 0, fmt.Sprintf("request failed: %v", err)), nil
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
	}()

	responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return v.evaluateResponse(resp.StatusCode, string(responseBody)), nil
}

// templateVars flattens NamedGroups into the {{secret}}-style vars the
// URL/body/header templates reference, including a "secret" alias for
// the canonical captured value so rules that don't name their group
// "secret" can still write {{secret}}.
func templateVars(namedGroups map[string][]byte) map[string][]byte {
	vars := make(map[string][]byte, len(namedGroups)+1)
	for k, v := range namedGroups {
		vars[k] = v
	}
	return vars
}

func (v *HTTPValidator) extractSecret(match *types.Match) (string, error) {
	groupName := v.spec.Auth.SecretGroup
	if groupName == "" {
		return string(match.CanonicalSecret()), nil
	}
	if match.NamedGroups == nil {
		return "", fmt.Errorf("no named capture groups in match (rule %s needs (?P<%s>...))", v.ruleID, groupName)
	}
	value, ok := match.NamedGroups[groupName]
	if !ok {
		return "", fmt.Errorf("named group %q not found for rule %s", groupName, v.ruleID)
	}
	return string(value), nil
}

func (v *HTTPValidator) applyAuth(req *http.Request, secret string) error {
	switch v.spec.Auth.Type {
	case "", "none":
		return nil
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+secret)
	case "basic":
		username := v.spec.Auth.Username
		if username == "" {
			username = secret
		}
		auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + secret))
		req.Header.Set("Authorization", "Basic "+auth)
	case "header":
		if v.spec.Auth.HeaderName == "" {
			return fmt.Errorf("rule %s: header auth requires header_name", v.ruleID)
		}
		req.Header.Set(v.spec.Auth.HeaderName, secret)
	case "query":
		if v.spec.Auth.QueryParam == "" {
			return fmt.Errorf("rule %s: query auth requires query_param", v.ruleID)
		}
		q := req.URL.Query()
		q.Set(v.spec.Auth.QueryParam, secret)
		req.URL.RawQuery = q.Encode()
	case "api_key":
		prefix := v.spec.Auth.KeyPrefix
		if prefix == "" {
			prefix = "key="
		}
		req.Header.Set("Authorization", prefix+secret)
	default:
		return fmt.Errorf("rule %s: unsupported auth type %q", v.ruleID, v.spec.Auth.Type)
	}
	return nil
}

func (v *HTTPValidator) evaluateResponse(statusCode int, body string) *types.ValidationResult {
	for _, code := range v.spec.SuccessStatus {
		if statusCode == code && bodyMatchesAny(body, v.spec.BodyContainsAny) {
			r := types.NewValidationResult(types.StatusValid, 1.0, fmt.Sprintf("HTTP %d - credential accepted", statusCode))
			r.ResponseStatus = statusCode
			r.ResponseBody = truncate(body, 512)
			return r
		}
	}
	for _, code := range v.spec.FailureStatus {
		if statusCode == code {
			r := types.NewValidationResult(types.StatusInvalid, 1.0, fmt.Sprintf("HTTP %d - credential rejected", statusCode))
			r.ResponseStatus = statusCode
			r.ResponseBody = truncate(body, 512)
			return r
		}
	}
	r := types.NewValidationResult(types.StatusUndetermined, 0.5, fmt.Sprintf("HTTP %d - unrecognized status code", statusCode))
	r.ResponseStatus = statusCode
	return r
}

func bodyMatchesAny(body string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	for _, n := range needles {
		if strings.Contains(body, n) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// substituteTemplateVars replaces {{name}}, {{ name }}, {{.name}} and
// {{ .name }} occurrences of each named capture group in s.
func substituteTemplateVars(s string, groups map[string][]byte) string {
	for name, value := range groups {
		val := string(value)
		s = strings.ReplaceAll(s, "{{"+name+"}}", val)
		s = strings.ReplaceAll(s, "{{ "+name+" }}", val)
		s = strings.ReplaceAll(s, "{{."+name+"}}", val)
		s = strings.ReplaceAll(s, "{{ ."+name+" }}", val)
	}
	return s
}
