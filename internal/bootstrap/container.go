package bootstrap

import (
	"context"

	"glassfactory-chat/internal/config"
	"glassfactory-chat/internal/constant"
	"glassfactory-chat/internal/controller"
	"glassfactory-chat/internal/handler"
	"glassfactory-chat/internal/model"
	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/internal/repository/contract"
	"glassfactory-chat/internal/repository/implementation"
	"glassfactory-chat/internal/service"
	"glassfactory-chat/internal/websocket"
	"glassfactory-chat/pkg/database"
	pktNats "glassfactory-chat/pkg/nats"
	"glassfactory-chat/pkg/webhook"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const bootstrapLogModule = "Bootstrap"

type Container struct {
	// Controllers
	ChatController controller.IChatController
	LiveHandler    *handler.LiveHandler

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	LiveHub         *websocket.Hub

	closers []func()
}

// NewContainer wires the service. db may be nil, in which case turns are not archived.
// An empty NATS_URL disables the relay and an empty REDIS_URL keeps live
// updates local to this instance.
func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	c := &Container{}

	// Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// Turn archive
	var turnRepo contract.ChatTurnRepository
	if db != nil {
		if err := database.Migrate(db, &model.ChatTurn{}); err != nil {
			sysLogger.Error(bootstrapLogModule, "Migration failed, turn archive disabled", map[string]interface{}{"error": err})
		} else {
			turnRepo = implementation.NewChatTurnRepository(db)
		}
	} else {
		sysLogger.Info(bootstrapLogModule, "DB_CONNECTION_STRING not set, turn archive disabled", nil)
	}

	// Live websocket hub, always on
	rdb := c.connectRedis(cfg.Database.RedisURL, sysLogger)
	c.LiveHub = websocket.NewHub(rdb, sysLogger)
	relays := service.FanOutRelay{c.LiveHub}

	// NATS relay
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(bootstrapLogModule, "Failed to connect to NATS Publisher", map[string]interface{}{"error": err.Error()})
		} else {
			relays = append(relays, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	webhookClient := webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Timeout)
	publisherService := service.NewPublisherService(constant.TopicTurnCompleted, pubSub)

	chatService := service.NewChatService(webhookClient, publisherService, sysLogger)
	turnService := service.NewTurnService(turnRepo)

	c.ChatController = controller.NewChatController(chatService, turnService, sysLogger)
	c.LiveHandler = handler.NewLiveHandler(c.LiveHub, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, constant.TopicTurnCompleted, turnRepo, relays, sysLogger)
	return c
}

// connectRedis returns nil when url is empty or the server is unreachable.
func (c *Container) connectRedis(url string, sysLogger logger.ILogger) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		sysLogger.Warn(bootstrapLogModule, "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		sysLogger.Warn(bootstrapLogModule, "Failed to connect to Redis, live updates stay local", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return rdb
}

// Close releases the bus and the broker connections, newest first.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
