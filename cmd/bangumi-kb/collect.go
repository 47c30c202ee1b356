package main

import (
	"context"
	"fmt"

	"github.com/Sternrassler/bangumi-kb/internal/progress"
	"github.com/Sternrassler/bangumi-kb/pkg/cache"
	"github.com/Sternrassler/bangumi-kb/pkg/client"
	"github.com/Sternrassler/bangumi-kb/pkg/collector"
	"github.com/Sternrassler/bangumi-kb/pkg/config"
	"github.com/Sternrassler/bangumi-kb/pkg/kb"
	"github.com/Sternrassler/bangumi-kb/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type collectOptions struct {
	baseURL  string
	token    string
	output   string
	delayMS  int
	pageSize int
	redis    string
}

func newCollectCmd(root *rootOptions) *cobra.Command {
	opts := &collectOptions{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch every subject and write the JSON knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd, &root.cfg)
			return root.finish("collect", runCollect(commandContext(cmd), cmd, root.cfg))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.baseURL, "base-url", "", "API base URL (default "+config.DefaultBaseURL+")")
	flags.StringVar(&opts.token, "token", "", "Bangumi access token sent as a bearer credential")
	flags.StringVarP(&opts.output, "output", "o", "", "knowledge base file (default "+config.DefaultKnowledgeBasePath+")")
	flags.IntVar(&opts.delayMS, "delay", 0, "pause between requests in milliseconds")
	flags.IntVar(&opts.pageSize, "page-size", 0, "listing page size")
	flags.StringVar(&opts.redis, "redis", "",
		"Redis address for the response cache (empty disables it); cached responses can be up to cache_ttl_minutes old, so a run no longer rebuilds everything from the API")

	return cmd
}

// apply copies the flags the user set onto cfg.
func (o *collectOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = o.baseURL
	}
	if flags.Changed("token") {
		cfg.AccessToken = o.token
	}
	if flags.Changed("output") {
		cfg.KnowledgeBasePath = o.output
	}
	if flags.Changed("delay") {
		cfg.RequestDelayMS = o.delayMS
	}
	if flags.Changed("page-size") {
		cfg.PageSize = o.pageSize
	}
	if flags.Changed("redis") {
		cfg.RedisAddr = o.redis
	}
}

func runCollect(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	clientCfg := client.Config{
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.HTTPTimeout(),
		CacheTTL:    cfg.CacheTTL(),
	}

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unreachable, running without response cache")
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Response cache enabled")
			clientCfg.Cache = cache.NewManager(redisClient)
		}
	}

	api, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	c := collector.New(api, ratelimit.NewPacer(cfg.RequestDelay()), collector.Config{
		PageSize:    cfg.PageSize,
		SubjectType: cfg.SubjectType,
		Sort:        cfg.Sort,
		MaxTags:     cfg.MaxTags,
	}, progress.ForTerminal("详情"))

	report, err := c.Run(ctx)
	if err != nil {
		printLine(cmd, "%s", warnStyle.Render("未能获取动画ID列表，程序退出。"))
		return err
	}

	if err := kb.Save(cfg.KnowledgeBasePath, report.Records); err != nil {
		return err
	}

	printCollectSummary(cmd, report, cfg.KnowledgeBasePath)
	return nil
}

func printCollectSummary(cmd *cobra.Command, report *collector.Report, path string) {
	printLine(cmd, "%s", titleStyle.Render("处理完成！"))
	printLine(cmd, "  %s %s",
		okStyle.Render(fmt.Sprintf("共 %d 条动画信息已保存至", report.Succeeded())),
		path)
	if n := report.Failed(); n > 0 {
		printLine(cmd, "  %s", warnStyle.Render(fmt.Sprintf("跳过 %d 个获取失败的作品", n)))
	}
	if report.ListingErr != nil {
		printLine(cmd, "  %s", warnStyle.Render("ID 列表获取提前中断，结果不完整"))
	}
	printLine(cmd, "  %s", mutedStyle.Render(fmt.Sprintf("列表页数 %d", report.Pages)))
}
