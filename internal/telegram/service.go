package telegram

import (
	"context"
	"fmt"
	"strings"

	"stars-ledger-go/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Service wraps the chat API used for sponsor-subscription verification and
// operator notifications. The conversational front end lives elsewhere;
// this client only answers membership questions and delivers events.
type Service struct {
	bot            *tgbotapi.BotAPI
	operatorChatId int64
}

func NewService(cfg models.TelegramConfig) (*Service, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("chat API token cannot be empty")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create chat API client: %w", err)
	}

	zap.L().Info("Chat API client initialized", zap.String("account", bot.Self.UserName))
	return &Service{bot: bot, operatorChatId: cfg.OperatorChatId}, nil
}

// IsSubscribed reports whether the user is a member of the sponsor channel.
func (s *Service) IsSubscribed(_ context.Context, userId int64, sponsor models.Sponsor) (bool, error) {
	member, err := s.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channelName(sponsor.ChannelUsername),
			UserID:             userId,
		},
	})
	if err != nil {
		return false, fmt.Errorf("membership lookup for sponsor %d failed: %w", sponsor.Id, err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	default:
		return false, nil
	}
}

// NotifyOperator delivers a plain-text event to the operator channel.
func (s *Service) NotifyOperator(_ context.Context, text string) error {
	if s.operatorChatId == 0 {
		return fmt.Errorf("operator chat id is not configured")
	}

	if _, err := s.bot.Send(tgbotapi.NewMessage(s.operatorChatId, text)); err != nil {
		return fmt.Errorf("unable to send operator notification: %w", err)
	}
	return nil
}

func channelName(username string) string {
	if strings.HasPrefix(username, "@") {
		return username
	}
	return "@" + username
}
