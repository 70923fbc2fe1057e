package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"tutorapp/internal/config"
	"tutorapp/internal/models"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// OracleFactory builds the oracle a practice run talks to
type OracleFactory func(cfg config.OracleConfig, logger *observability.Logger) (services.Oracle, error)

type practiceOptions struct {
	language       string
	difficulty     string
	apiKey         string
	noGamification bool
}

// PracticeCommand returns the interactive practice command
func PracticeCommand(cfg *config.Config, logger *observability.Logger, newOracle OracleFactory) *cobra.Command {
	opts := &practiceOptions{}
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice a language interactively",
		Long: `Practice a language interactively.

The tutor poses a question in the target language and critiques each answer you type.
Lines starting with ':' are commands; type :help to list them.

The API key is taken from --api-key, then $TUTOR_API_KEY, then oracle.api_key in the
config file. When none is set and stdin is a terminal you are prompted for it.`,
		Args: cobra.NoArgs,
		RunE: runPractice(cfg, logger, newOracle, opts),
	}

	cmd.Flags().StringVar(&opts.language, "language", cfg.Tutor.DefaultLanguage, "target language")
	cmd.Flags().StringVar(&opts.difficulty, "difficulty", cfg.Tutor.DefaultDifficulty, "question difficulty (Beginner, Intermediate, Advanced)")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key for the language model")
	cmd.Flags().BoolVar(&opts.noGamification, "no-gamification", false, "hide points and progress")

	return cmd
}

func runPractice(cfg *config.Config, logger *observability.Logger, newOracle OracleFactory, opts *practiceOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out := cmd.OutOrStdout()

		prefs, err := practicePreferences(cfg, opts)
		if err != nil {
			return err
		}

		credential, err := resolveCredential(opts.apiKey, cfg.Oracle.APIKey, cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
		if credential == "" {
			fmt.Fprintf(out, "Please enter your API key to continue (--api-key or $%s).\n", config.APIKeyEnv)
			return contextutils.ErrMissingCredential
		}

		oracle, err := newOracle(cfg.Oracle, logger)
		if err != nil {
			return err
		}
		prompts, err := services.NewPromptBuilder()
		if err != nil {
			return err
		}

		p := &practiceSession{
			tutor: services.NewTutorService(oracle, prompts, logger),
			sess:  models.NewTutorSession(uuid.NewString(), prefs, credential, time.Now()),
			in:    bufio.NewReader(cmd.InOrStdin()),
			out:   out,
		}
		return p.run(ctx)
	}
}

func practicePreferences(cfg *config.Config, opts *practiceOptions) (models.Preferences, error) {
	language, ok := models.ParseLanguage(opts.language)
	if !ok {
		return models.Preferences{}, contextutils.WrapErrorf(contextutils.ErrInvalidInput,
			"unknown language %q, choose one of %s", opts.language, joinLanguages())
	}
	difficulty, ok := models.ParseDifficulty(opts.difficulty)
	if !ok {
		return models.Preferences{}, contextutils.WrapErrorf(contextutils.ErrInvalidInput,
			"unknown difficulty %q, choose one of %s", opts.difficulty, joinDifficulties())
	}
	return models.Preferences{
		Language:     language,
		Difficulty:   difficulty,
		Gamification: cfg.Tutor.Gamification && !opts.noGamification,
	}, nil
}

// resolveCredential picks the first non-blank key from the flag, the environment and the
// config. It falls back to a no-echo prompt only when in is a terminal.
func resolveCredential(flagKey, configKey string, in io.Reader, out io.Writer) (string, error) {
	for _, candidate := range []string{flagKey, os.Getenv(config.APIKeyEnv), configKey} {
		if key := contextutils.NormalizeCredential(candidate); key != "" {
			return key, nil
		}
	}

	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", nil
	}

	fmt.Fprint(out, "API key: ")
	raw, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", contextutils.WrapError(err, "failed to read API key")
	}
	return contextutils.NormalizeCredential(string(raw)), nil
}

// practiceSession drives one learner through questions on a line-oriented terminal
type practiceSession struct {
	tutor services.TutorServiceInterface
	sess  *models.TutorSession
	in    *bufio.Reader
	out   io.Writer
}

func (p *practiceSession) run(ctx context.Context) error {
	prefs := p.preferences()
	fmt.Fprintf(p.out, "%s practice, %s level. Type :help for commands.\n", prefs.Language, prefs.Difficulty)
	p.newQuestion(ctx)

	for {
		fmt.Fprint(p.out, "> ")
		line, err := p.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(p.out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimRight(line, "\r\n")
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, ":") {
			if p.command(ctx, trimmed) {
				return nil
			}
			continue
		}
		p.submit(ctx, line)
	}
}

// command runs one ':' command and reports whether the session should end
func (p *practiceSession) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case ":quit", ":q", ":exit":
		p.with(func(s *models.TutorSession) { renderGoodbye(p.out, s.View()) })
		return true
	case ":new":
		p.newQuestion(ctx)
	case ":history":
		p.with(func(s *models.TutorSession) { renderHistory(p.out, s.View().History) })
	case ":score":
		p.with(func(s *models.TutorSession) { renderScore(p.out, s.View()) })
	case ":feedback":
		p.with(func(s *models.TutorSession) {
			view := s.View()
			renderFeedback(p.out, view.LastFeedback, false, view.Preferences.Gamification)
		})
	case ":lang":
		language, ok := models.ParseLanguage(arg)
		if !ok {
			fmt.Fprintf(p.out, "Unknown language %q. Choose one of %s.\n", arg, joinLanguages())
			return false
		}
		p.with(func(s *models.TutorSession) { s.Preferences.Language = language })
		fmt.Fprintf(p.out, "Language set to %s. Type :new for a question in %s.\n", language, language)
	case ":level":
		difficulty, ok := models.ParseDifficulty(arg)
		if !ok {
			fmt.Fprintf(p.out, "Unknown difficulty %q. Choose one of %s.\n", arg, joinDifficulties())
			return false
		}
		p.with(func(s *models.TutorSession) { s.Preferences.Difficulty = difficulty })
		fmt.Fprintf(p.out, "Difficulty set to %s. It applies from the next question.\n", difficulty)
	case ":help":
		renderHelp(p.out)
	default:
		fmt.Fprintf(p.out, "Unknown command %q. Type :help for commands.\n", name)
	}
	return false
}

func (p *practiceSession) newQuestion(ctx context.Context) {
	question, err := p.tutor.NewQuestion(ctx, p.sess)
	if err != nil {
		renderActionError(p.out, "get a question", err)
		return
	}
	renderQuestion(p.out, question)
}

func (p *practiceSession) submit(ctx context.Context, response string) {
	result, err := p.tutor.SubmitAnswer(ctx, p.sess, response)
	if err != nil {
		renderActionError(p.out, "get feedback", err)
		return
	}
	renderSubmission(p.out, result, p.preferences().Gamification)
}

func (p *practiceSession) preferences() models.Preferences {
	var prefs models.Preferences
	p.with(func(s *models.TutorSession) { prefs = s.Preferences })
	return prefs
}

func (p *practiceSession) with(fn func(s *models.TutorSession)) {
	p.sess.Lock()
	defer p.sess.Unlock()
	fn(p.sess)
}
