package play

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/spf13/cobra"
	"github.com/zuchzub/guildtunes/cmd/common"
	"github.com/zuchzub/guildtunes/pkg/handlers"
)

type Params struct {
	Queries  []string `pos:"true" optional:"true" help:"Songs to queue: names, YouTube links or Spotify track links."`
	Guild    string   `short:"g" optional:"true" help:"Guild id the queue belongs to." default:"1"`
	User     string   `short:"u" optional:"true" help:"Name shown as the requester." default:"cli"`
	Autoplay bool     `short:"a" optional:"true" help:"Turn autoplay on before queueing."`
	Wait     bool     `short:"w" optional:"true" help:"Exit once the queue has drained instead of reading commands from stdin."`
}

// Session is the command surface driven by the CLI.
type Session interface {
	Play(ctx context.Context, req handlers.Request) handlers.Reply
	PlayNext(ctx context.Context, req handlers.Request) handlers.Reply
	Skip(ctx context.Context, req handlers.Request) handlers.Reply
	Pause(ctx context.Context, req handlers.Request) handlers.Reply
	Resume(ctx context.Context, req handlers.Request) handlers.Reply
	Stop(ctx context.Context, req handlers.Request) handlers.Reply
	Queue(ctx context.Context, req handlers.Request) handlers.Reply
	NowPlaying(ctx context.Context, req handlers.Request) handlers.Reply
	Autoplay(ctx context.Context, req handlers.Request) handlers.Reply
	Stats(ctx context.Context, req handlers.Request) handlers.Reply
}

var _ Session = (*handlers.Handler)(nil)

const help = `Commands:
  play <query>      queue a song
  next <query>      queue a song right after the current one
  skip | pause | resume | stop
  queue | np | autoplay | stats
  quit`

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "play",
		Short:       "Play songs through the local audio player",
		Long:        "Queue songs for a guild and play them through PLAYER_COMMAND. Without --wait, further commands are read from stdin.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

			guildID, err := common.ParseGuild(params.Guild)
			if err != nil {
				fmt.Fprintf(os.Stderr, "play: invalid guild %q: %v\n", params.Guild, err)
				stop()
				os.Exit(1)
			}

			app, err := common.Setup(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				stop()
				os.Exit(1)
			}

			req := handlers.Request{GuildID: guildID, User: params.User, Lang: "en", InVoice: true}
			if params.Autoplay && !app.Manager.AutoplayState(ctx, guildID) {
				fmt.Fprintln(os.Stdout, app.Handler.Autoplay(ctx, req))
			}
			for _, q := range params.Queries {
				req.Query = q
				fmt.Fprintln(os.Stdout, app.Handler.Play(ctx, req))
			}

			if params.Wait {
				waitIdle(ctx, func() bool { return app.Manager.CurrentTrack(guildID) == nil })
			} else {
				req.Query = ""
				Repl(ctx, app.Handler, req, os.Stdin, os.Stdout)
			}

			app.Close()
			stop()
		},
	}.ToCobra()
}

// waitIdle blocks until idle reports true or ctx ends.
func waitIdle(ctx context.Context, idle func() bool) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for !idle() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Repl reads one command per line and prints the replies until quit, EOF or ctx ends.
func Repl(ctx context.Context, s Session, base handlers.Request, in io.Reader, out io.Writer) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			reply, quit := dispatch(ctx, s, base, line)
			if quit {
				return
			}
			if reply != "" {
				fmt.Fprintln(out, reply)
			}
		}
	}
}

func dispatch(ctx context.Context, s Session, base handlers.Request, line string) (string, bool) {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	req := base
	req.Query = strings.TrimSpace(arg)

	var run func(context.Context, handlers.Request) handlers.Reply
	switch strings.ToLower(name) {
	case "":
		return "", false
	case "quit", "exit":
		return "", true
	case "play", "p":
		run = s.Play
	case "next", "playnext":
		run = s.PlayNext
	case "skip", "s":
		run = s.Skip
	case "pause":
		run = s.Pause
	case "resume":
		run = s.Resume
	case "stop":
		run = s.Stop
	case "queue", "q":
		run = s.Queue
	case "np", "nowplaying":
		run = s.NowPlaying
	case "autoplay":
		run = s.Autoplay
	case "stats":
		run = s.Stats
	default:
		return help, false
	}
	return run(ctx, req).String(), false
}
