package main

import (
	"fmt"

	"github.com/Sternrassler/bangumi-kb/pkg/config"
	"github.com/Sternrassler/bangumi-kb/pkg/formatter"
	"github.com/spf13/cobra"
)

type formatOptions struct {
	input  string
	output string
}

func newFormatCmd(root *rootOptions) *cobra.Command {
	opts := &formatOptions{}

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Render the knowledge base as one Markdown document",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd, &root.cfg)
			return root.finish("format", runFormat(cmd, root.cfg))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "knowledge base file (default "+config.DefaultKnowledgeBasePath+")")
	flags.StringVarP(&opts.output, "output", "o", "", "Markdown file (default "+config.DefaultMarkdownPath+")")

	return cmd
}

func (o *formatOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.KnowledgeBasePath = o.input
	}
	if flags.Changed("output") {
		cfg.MarkdownPath = o.output
	}
}

func runFormat(cmd *cobra.Command, cfg config.Config) error {
	if cfg.KnowledgeBasePath == "" || cfg.MarkdownPath == "" {
		return fmt.Errorf("invalid configuration: knowledge base and markdown paths are required")
	}

	res, err := formatter.New(formatter.Config{
		Input:  cfg.KnowledgeBasePath,
		Output: cfg.MarkdownPath,
	}).Run(commandContext(cmd))
	if err != nil {
		return err
	}

	printLine(cmd, "%s", titleStyle.Render("成功！知识库文件已生成: "+cfg.MarkdownPath))
	printLine(cmd, "  %s", okStyle.Render(fmt.Sprintf("%d 个作品块，%d 字节", res.Records, res.Bytes)))
	return nil
}
