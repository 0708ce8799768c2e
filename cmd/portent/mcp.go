package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/portent-dev/portent/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes scoring as
tools LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "portent": {
        "command": "portent",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - score_program  Score a program from captured analyzer outputs
  - fit_corpus     Fit reference distributions from a benchmark
  - show_corpus    Print the reference corpus table`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "print-manifest",
				Usage: "Print the MCP server manifest (server.json) and exit",
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	if c.Bool("print-manifest") {
		manifest, err := mcpserver.GenerateManifest(version)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(manifest))
		return nil
	}

	server := mcpserver.NewServer(version)
	return server.Run(c.Context)
}
