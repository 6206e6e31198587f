package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v2"

	"github.com/hamed0406/hostwatcher/internal/domain"
)

// SectionName is the mandatory section of the watch file.
const SectionName = "watch"

var (
	ErrNotFile   = errors.New("is not a file")
	ErrNoSection = fmt.Errorf("mandatory section %q absent", SectionName)
)

// Error is returned for any problem loading a watch file.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("config %q: %v", e.Path, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// section abstracts the source format: one flat key/value table.
type section interface {
	lookup(key string) (string, bool)
}

// Load reads the watch file at path. Files ending in .yaml or .yml are parsed
// as YAML; anything else as INI.
func Load(path string) (*Watch, error) {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		return nil, &Error{Path: path, Err: ErrNotFile}
	}

	var sec section
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		sec, err = yamlSection(path)
	default:
		sec, err = iniSection(path)
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	w, err := fromSection(sec)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return w, nil
}

type iniValues struct{ s *ini.Section }

func (v iniValues) lookup(key string) (string, bool) {
	if !v.s.HasKey(key) {
		return "", false
	}
	return v.s.Key(key).String(), true
}

func iniSection(path string) (section, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		AllowPythonMultilineValues: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}
	s, err := f.GetSection(SectionName)
	if err != nil {
		return nil, ErrNoSection
	}
	return iniValues{s: s}, nil
}

type yamlValues map[string]string

func (v yamlValues) lookup(key string) (string, bool) {
	s, ok := v[key]
	return s, ok
}

func yamlSection(path string) (section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}
	var doc map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	raw, ok := doc[SectionName]
	if !ok {
		return nil, ErrNoSection
	}
	out := make(yamlValues, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = yamlScalar(v)
	}
	return out, nil
}

// yamlScalar flattens a YAML value into the same text form an INI value
// would have, so list parsing is shared.
func yamlScalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func fromSection(s section) (*Watch, error) {
	w := Defaults()
	var errs error

	if v, ok := s.lookup("ping-list"); ok {
		w.PingList = parseList(v)
	}
	if v, ok := s.lookup("http-list"); ok {
		w.HTTPList = parseList(v)
	}
	if v, ok := s.lookup("https-list"); ok {
		w.HTTPSList = parseList(v)
	}
	if v, ok := s.lookup("timeout"); ok {
		n, err := parsePositive("timeout", v)
		errs = multierr.Append(errs, err)
		w.Interval = time.Duration(n) * time.Second
	}
	if v, ok := s.lookup("check-timeout"); ok {
		n, err := parsePositive("check-timeout", v)
		errs = multierr.Append(errs, err)
		w.CheckTimeout = time.Duration(n) * time.Second
	}
	if v, ok := s.lookup("mail-to"); ok {
		w.MailTo = strings.TrimSpace(v)
	}
	if v, ok := s.lookup("mail-from"); ok {
		w.MailFrom = strings.TrimSpace(v)
	}
	if v, ok := s.lookup("mail-levels-list"); ok {
		w.MailLevels = w.MailLevels[:0:0]
		for _, item := range parseList(v) {
			w.MailLevels = append(w.MailLevels, domain.ParseLevel(item))
		}
	}
	for _, key := range []string{"ok-mail-silent-checks", "mail-after-ok-checks"} {
		if v, ok := s.lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s: want a non-negative integer, got %q", key, v))
				continue
			}
			w.MailAfterOKChecks = n
		}
	}
	if v, ok := s.lookup("dns-diagnose"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dns-diagnose: want a boolean, got %q", v))
		}
		w.DNSDiagnose = b
	}
	if v, ok := s.lookup("mail-transport"); ok {
		t := strings.ToLower(strings.TrimSpace(v))
		if t != TransportSendmail && t != TransportSMTP {
			errs = multierr.Append(errs, fmt.Errorf("mail-transport: want %q or %q, got %q", TransportSendmail, TransportSMTP, v))
		} else {
			w.MailTransport = t
		}
	}
	if v, ok := s.lookup("sendmail-path"); ok && strings.TrimSpace(v) != "" {
		w.SendmailPath = strings.TrimSpace(v)
	}
	if v, ok := s.lookup("smtp-addr"); ok && strings.TrimSpace(v) != "" {
		w.SMTPAddr = strings.TrimSpace(v)
	}
	if v, ok := s.lookup("smtp-user"); ok {
		w.SMTPUser = strings.TrimSpace(v)
	}
	if v, ok := s.lookup("smtp-password"); ok {
		w.SMTPPassword = v
	}

	if errs != nil {
		return nil, errs
	}
	return w, nil
}

// parseList splits on commas and newlines, trims tokens and drops empty ones.
func parseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parsePositive(key, v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: want a positive integer, got %q", key, v)
	}
	return n, nil
}
