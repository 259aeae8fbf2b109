package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"max-webhook-bot/internal/config"
	"max-webhook-bot/internal/logger"
	"max-webhook-bot/internal/max/client"
	"max-webhook-bot/internal/max/requests"
	"max-webhook-bot/internal/max/update"
	"max-webhook-bot/internal/payload"
)

// maxctl разовые операции с API платформы: подписка вебхука и отправка сообщений

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error

	switch os.Args[1] {
	case "subscribe":
		err = cmdSubscribe(os.Args[2:])
	case "subscriptions":
		err = cmdSubscriptions(os.Args[2:])
	case "unsubscribe":
		err = cmdUnsubscribe(os.Args[2:])
	case "send":
		err = cmdSend(os.Args[2:])
	case "delete":
		err = cmdDelete(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println()
	fmt.Println("  Usage")
	fmt.Println()
	fmt.Printf("    maxctl %-34s %s\n", "subscribe [-url URL]", "Register webhook (default https://MAIN_HOST/webhook)")
	fmt.Printf("    maxctl %-34s %s\n", "subscriptions", "List registered webhooks")
	fmt.Printf("    maxctl %-34s %s\n", "unsubscribe [-url URL]", "Remove webhook")
	fmt.Printf("    maxctl %-34s %s\n", "send -user ID (-text T | -payload F)", "Send message to user")
	fmt.Printf("    maxctl %-34s %s\n", "delete -message MID", "Delete message")
	fmt.Println()
	fmt.Println("  Every command accepts -config and -env, same as the server.")
	fmt.Println()
}

type command struct {
	fs  *flag.FlagSet
	cnf *config.Conf

	configFile *string
	envFile    *string
}

func newCommand(name string) *command {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &command{
		fs:         fs,
		cnf:        &config.Conf{},
		configFile: fs.String("config", "./config/config.yml", "Usage: -config=<config_file>"),
		envFile:    fs.String("env", ".env", "Usage: -env=<env_file>"),
	}
}

func (c *command) parse(args []string) (*client.Client, error) {
	if err := c.fs.Parse(args); err != nil {
		return nil, err
	}

	logger.InitLogger(false, logger.Config{})

	if err := config.GetConfig(*c.configFile, *c.envFile, c.cnf); err != nil {
		return nil, err
	}
	if c.cnf.Max.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}

	return client.New(c.cnf.Max.ApiBaseUrl, c.cnf.Max.Token), nil
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func hookUrl(flagValue string, cnf *config.Conf) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cnf.Max.MainHost == "" {
		return "", fmt.Errorf("set -url or MAIN_HOST")
	}
	return cnf.Max.WebhookUrl(), nil
}

func cmdSubscribe(args []string) error {
	c := newCommand("subscribe")
	u := c.fs.String("url", "", "Webhook url")

	cl, err := c.parse(args)
	if err != nil {
		return err
	}

	target, err := hookUrl(*u, c.cnf)
	if err != nil {
		return err
	}

	ctx, cancel := timeout()
	defer cancel()

	if err := cl.Subscribe(ctx, target, c.cnf.Max.Secret, update.Subscribed); err != nil {
		return err
	}

	fmt.Println("Subscribed:", target)
	return nil
}

func cmdSubscriptions(args []string) error {
	c := newCommand("subscriptions")

	cl, err := c.parse(args)
	if err != nil {
		return err
	}

	ctx, cancel := timeout()
	defer cancel()

	list, err := cl.Subscriptions(ctx)
	if err != nil {
		return err
	}

	if len(list.Subscriptions) == 0 {
		fmt.Println("No subscriptions")
		return nil
	}
	for _, s := range list.Subscriptions {
		fmt.Printf("%s\t%s\t%v\n", s.Url, time.UnixMilli(s.Time).Format(time.RFC3339), s.UpdateTypes)
	}
	return nil
}

func cmdUnsubscribe(args []string) error {
	c := newCommand("unsubscribe")
	u := c.fs.String("url", "", "Webhook url")

	cl, err := c.parse(args)
	if err != nil {
		return err
	}

	target, err := hookUrl(*u, c.cnf)
	if err != nil {
		return err
	}

	ctx, cancel := timeout()
	defer cancel()

	if err := cl.Unsubscribe(ctx, target); err != nil {
		return err
	}

	fmt.Println("Unsubscribed:", target)
	return nil
}

func cmdSend(args []string) error {
	c := newCommand("send")
	user := c.fs.Int64("user", 0, "Recipient user_id")
	text := c.fs.String("text", "", "Message text")
	name := c.fs.String("payload", "", "JSON template file in payloads_dir")

	cl, err := c.parse(args)
	if err != nil {
		return err
	}
	if *user == 0 {
		return fmt.Errorf("-user is required")
	}

	var body any
	switch {
	case *name != "":
		store, err := payload.New(c.cnf.PayloadsDir, c.cnf.TextEncoding)
		if err != nil {
			return err
		}
		if body, err = store.Load(*name); err != nil {
			return err
		}
	case *text != "":
		body = requests.NewMessageBody{Text: *text}
	default:
		return fmt.Errorf("-text or -payload is required")
	}

	ctx, cancel := timeout()
	defer cancel()

	res, err := cl.Send(ctx, *user, body)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", res.Message)
	return nil
}

func cmdDelete(args []string) error {
	c := newCommand("delete")
	mid := c.fs.String("message", "", "Message id")

	cl, err := c.parse(args)
	if err != nil {
		return err
	}
	if *mid == "" {
		return fmt.Errorf("-message is required")
	}

	ctx, cancel := timeout()
	defer cancel()

	if err := cl.Delete(ctx, *mid); err != nil {
		return err
	}

	fmt.Println("Deleted:", *mid)
	return nil
}
