package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/discordx"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/dispatch"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/engage"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/keepalive"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/logutil"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/session"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/shape"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/tts"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/voice"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/providers/uniai"
)

// handleTimeout bounds one event's full pipeline: generation, typing pause,
// send, speech.
const handleTimeout = 90 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and chat until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			token := strings.TrimSpace(flagOrViperString(cmd, "discord-bot-token", "discord.bot_token"))
			if token == "" {
				return fmt.Errorf("missing discord.bot_token (set via --discord-bot-token or %s_DISCORD_BOT_TOKEN)", envPrefix)
			}
			apiKey := strings.TrimSpace(viper.GetString("llm.api_key"))
			if apiKey == "" {
				return fmt.Errorf("missing llm.api_key (set via %s_LLM_API_KEY)", envPrefix)
			}

			client := uniai.New(uniai.Config{
				Provider:       viper.GetString("llm.provider"),
				Endpoint:       viper.GetString("llm.endpoint"),
				APIKey:         apiKey,
				Model:          viper.GetString("llm.model"),
				RequestTimeout: viper.GetDuration("llm.request_timeout"),
			})

			sessions := session.New(viper.GetInt("session.max_turns"), dispatch.SeedHistory())
			guard := engage.New(viper.GetInt("dedup.capacity"), viper.GetDuration("reply.follow_window"))
			shaper := shape.New(shape.Options{
				MaxChars:      viper.GetInt("shape.max_chars"),
				ForceQuestion: viper.GetBool("reply.force_question"),
				FillerRate:    viper.GetFloat64("reply.filler_rate"),
			})
			replier := dispatch.NewReplier(dispatch.ReplierOptions{
				Client:          client,
				Model:           viper.GetString("llm.model"),
				Sessions:        sessions,
				Shaper:          shaper,
				Logger:          logger,
				MaxUserChars:    viper.GetInt("reply.max_user_chars"),
				MaxOutputTokens: viper.GetInt("llm.max_output_tokens"),
				Temperature:     viper.GetFloat64("llm.temperature"),
				TopP:            viper.GetFloat64("llm.top_p"),
			})

			dg, err := discordgo.New("Bot " + token)
			if err != nil {
				return fmt.Errorf("discord session: %w", err)
			}
			dg.Identify.Intents = discordgo.IntentGuilds |
				discordgo.IntentGuildMessages |
				discordgo.IntentDirectMessages |
				discordgo.IntentMessageContent |
				discordgo.IntentGuildVoiceStates

			presets, err := tts.LoadPresets()
			if err != nil {
				return fmt.Errorf("load voice presets: %w", err)
			}
			voiceMgr, err := voice.NewManager(voice.Options{
				Session:      dg,
				Synth:        tts.NewClient(tts.ClientOptions{}),
				Presets:      presets,
				ActivePreset: strings.ToLower(viper.GetString("tts.preset")),
				Enabled:      viper.GetBool("tts.enabled"),
				NameCallout:  viper.GetBool("tts.name_callout"),
				Logger:       logger,
				Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
			})
			if err != nil {
				return err
			}

			messenger := discordx.NewMessenger(discordx.MessengerOptions{
				Session: dg,
				Logger:  logger,
			})

			instanceID := strings.Split(uuid.NewString(), "-")[0]
			ctrl := dispatch.NewController(dispatch.Options{
				Logger:     logger,
				Guard:      guard,
				Sessions:   sessions,
				Replier:    replier,
				Sender:     messenger,
				Voice:      voiceMgr,
				Cooldown:   viper.GetDuration("reply.cooldown"),
				InstanceID: instanceID,
			})

			dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
				logger.Info("discord_ready",
					"username", r.User.Username,
					"instance_id", instanceID,
					"guilds", len(r.Guilds),
				)
			})
			dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
				if s.State.User == nil {
					return
				}
				ev := discordx.FromMessageCreate(m, s.State.User.ID)
				ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
				defer cancel()
				ctrl.HandleEvent(ctx, ev)
			})

			if err := dg.Open(); err != nil {
				return fmt.Errorf("discord connect: %w", err)
			}
			defer dg.Close()

			var ka *keepalive.Server
			if viper.GetBool("keepalive.enabled") {
				addr := viper.GetString("keepalive.addr")
				if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
					addr = ":" + port
				}
				ka = keepalive.New(addr, logger)
				ka.Start()
			}

			logger.Info("disha_started", "model", viper.GetString("llm.model"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("disha_stopping")
			if ka != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = ka.Shutdown(shutdownCtx)
			}
			return nil
		},
	}

	cmd.Flags().String("discord-bot-token", "", "Discord bot token (or DISHA_DISCORD_BOT_TOKEN).")
	return cmd
}
