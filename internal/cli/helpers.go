package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Davincible/rss/internal/validation"
	"github.com/Davincible/rss/pkg/config"
	"github.com/Davincible/rss/pkg/crypto/secretsharing"
	"github.com/Davincible/rss/pkg/metrics"
	"github.com/Davincible/rss/pkg/secure"
	"github.com/Davincible/rss/pkg/sharestore"
	"github.com/Davincible/rss/pkg/storage"
)

// session carries the state one command invocation needs.
type session struct {
	cfg         *config.Config
	logger      *slog.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	metricsFile string
	jsonOutput  bool

	stdin  io.Reader
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newSession(cmd *cobra.Command) (*session, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var (
		cm  *config.ConfigManager
		err error
	)
	if configPath != "" {
		cm, err = config.NewConfigManagerAt(configPath)
	} else {
		cm, err = config.NewConfigManager()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := cm.GetConfig()

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	logger := newLogger(cmd.ErrOrStderr(), verbose, cfg.UI.Verbosity)
	slog.SetDefault(logger)

	if !cfg.UI.UseColor {
		color.NoColor = true
	}

	registry := prometheus.NewRegistry()

	return &session{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		metrics:     metrics.New(registry),
		metricsFile: metricsFile,
		jsonOutput:  jsonOutput,
		stdin:       cmd.InOrStdin(),
		in:          bufio.NewReader(cmd.InOrStdin()),
		out:         cmd.OutOrStdout(),
		errOut:      cmd.ErrOrStderr(),
	}, nil
}

func newLogger(w io.Writer, verbose bool, verbosity string) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose || verbosity == "verbose":
		level = slog.LevelDebug
	case verbosity == "quiet":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (s *session) newSharer(c secretsharing.Config) (*secretsharing.RobustSharer, error) {
	return secretsharing.NewRobustSharer(c,
		secretsharing.WithLogger(s.logger),
		secretsharing.WithMetrics(s.metrics))
}

// close flushes the metrics registry when --metrics-file was given.
func (s *session) close() error {
	if s.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	s.logger.Debug("wrote metrics", "path", s.metricsFile)
	return nil
}

func (s *session) writeJSON(v interface{}) error {
	encoder := json.NewEncoder(s.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// terminalFd reports the descriptor of r when it is an interactive terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// readLine reads one line of input without its line ending.
func (s *session) readLine() ([]byte, error) {
	line, err := s.in.ReadBytes('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("unexpected end of input")
		}
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

// readHidden prompts on stderr and reads a line, without echo on a terminal.
func (s *session) readHidden(prompt string) ([]byte, error) {
	fmt.Fprint(s.errOut, prompt)

	if fd, ok := terminalFd(s.stdin); ok {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(s.errOut)
		if err != nil {
			return nil, err
		}
		return data, nil
	}

	return s.readLine()
}

// readAll reads the remaining input, dropping one trailing line ending.
func (s *session) readAll() ([]byte, error) {
	data, err := io.ReadAll(s.in)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return data, nil
}

// readPassword returns the password from passwordFile, or prompts for it.
func (s *session) readPassword(prompt, passwordFile string, confirm bool) ([]byte, error) {
	if passwordFile != "" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read password file: %w", err)
		}
		defer secure.Zero(data)

		line := data
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		return append([]byte(nil), bytes.TrimRight(line, "\r")...), nil
	}

	password, err := s.readHidden(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	if confirm {
		again, err := s.readHidden("Confirm password: ")
		if err != nil {
			secure.Zero(password)
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		defer secure.Zero(again)

		if !secure.ConstantTimeCompare(password, again) {
			secure.Zero(password)
			return nil, fmt.Errorf("passwords do not match")
		}
	}

	return password, nil
}

// newPassword reads a password for encrypting share files and checks it
// against the configured policy.
func (s *session) newPassword(passwordFile string) ([]byte, error) {
	password, err := s.readPassword("Share file password: ", passwordFile, passwordFile == "")
	if err != nil {
		return nil, err
	}

	if err := validation.ValidatePassword(string(password)); err != nil {
		secure.Zero(password)
		return nil, err
	}
	if err := s.cfg.ValidatePassword(password); err != nil {
		secure.Zero(password)
		return nil, err
	}
	return password, nil
}

func (s *session) openStore() (*sharestore.ShareStore, error) {
	dir, err := s.cfg.StorageDir()
	if err != nil {
		return nil, err
	}
	return sharestore.NewShareStore(dir)
}

// resolveShareFiles returns the explicit paths, or the files of a stored set.
func (s *session) resolveShareFiles(args []string, setID string) ([]string, error) {
	if setID == "" {
		if len(args) == 0 {
			return nil, fmt.Errorf("no share files given, pass files or --set")
		}
		return args, nil
	}
	if len(args) > 0 {
		return nil, fmt.Errorf("--set cannot be combined with share file arguments")
	}

	store, err := s.openStore()
	if err != nil {
		return nil, err
	}
	return store.SharePaths(setID)
}

// loadShareFiles reads and merges the given share files. Encrypted files
// share one password, asked for at most once.
func (s *session) loadShareFiles(paths []string, passwordFile string) (*storage.ShareFile, error) {
	var password []byte
	defer func() { secure.Zero(password) }()

	files := make([]*storage.ShareFile, 0, len(paths))
	for _, path := range paths {
		f, err := storage.Read(path, password)
		if errors.Is(err, storage.ErrPasswordRequired) {
			password, err = s.readPassword(fmt.Sprintf("Password for %s: ", path), passwordFile, false)
			if err != nil {
				return nil, err
			}
			f, err = storage.Read(path, password)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		s.logger.Debug("loaded share file", "path", path, "set_id", f.SetID, "shares", len(f.Shares))
		files = append(files, f)
	}

	return storage.Merge(files)
}

func formatIDs(ids []byte) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}

// idList converts share ids to ints so JSON prints them as numbers.
func idList(ids []byte) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
