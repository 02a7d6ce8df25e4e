package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/gamebook/internal/presentation/graph"
	"github.com/aretw0/gamebook/internal/presentation/tui"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/spf13/cobra"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List every node with its role",
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()

		g, err := env.Engine.Graph(cmd.Context(), env.Config.Session)
		if err != nil {
			fail(env, "loading session", err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(g.Nodes)
			return
		}
		tui.NewPrinter(os.Stdout).Nodes(g)
	},
}

var edgesCmd = &cobra.Command{
	Use:   "edges",
	Short: "List every traversable edge",
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()

		g, err := env.Engine.Graph(cmd.Context(), env.Config.Session)
		if err != nil {
			fail(env, "loading session", err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			printJSON(g.Edges)
			return
		}
		tui.NewPrinter(os.Stdout).Edges(g)
	},
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Find the shortest route through every required node",
	Long: `Searches from the start node to the end node, visiting every node marked
required. --start and --end override the classified Start and End nodes.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")

		res, err := env.Engine.ShortestRequiredPath(cmd.Context(), env.Config.Session, start, end)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON && res != nil {
			printJSON(res)
		} else {
			tui.NewPrinter(os.Stdout).Path(res, err)
		}
		if err != nil && res == nil {
			_ = env.Close()
			os.Exit(1)
		}
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the session graph as a Mermaid diagram",
	Long:  `Outputs a Mermaid flowchart with one shape per role; --path highlights the shortest required route.`,
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()

		g, err := env.Engine.Graph(cmd.Context(), env.Config.Session)
		if err != nil {
			fail(env, "inspecting graph", err)
		}

		var overlay *pathfind.Result
		if withPath, _ := cmd.Flags().GetBool("path"); withPath {
			overlay, err = env.Engine.ShortestRequiredPath(cmd.Context(), env.Config.Session, "", "")
			if err != nil {
				env.Logger.Warn("Path overlay unavailable", "err", err)
			}
		}

		fmt.Print(graph.GenerateMermaid(g, overlay))
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown summary of the session",
	Run: func(cmd *cobra.Command, args []string) {
		env := setup(cmd)
		defer env.Close()
		session := env.Config.Session

		g, err := env.Engine.Graph(cmd.Context(), session)
		if err != nil {
			fail(env, "loading session", err)
		}
		res, pathErr := env.Engine.ShortestRequiredPath(cmd.Context(), session, "", "")
		md := tui.Report(session, g, res, pathErr)

		if raw, _ := cmd.Flags().GetBool("raw"); raw {
			fmt.Print(md)
			return
		}
		render, err := tui.NewRenderer(tui.IsTerminal(os.Stdout))
		if err != nil {
			fail(env, "creating renderer", err)
		}
		out, err := render(md)
		if err != nil {
			fail(env, "rendering report", err)
		}
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(nodesCmd, edgesCmd, pathCmd, graphCmd, reportCmd)

	nodesCmd.Flags().Bool("json", false, "Output JSON")
	edgesCmd.Flags().Bool("json", false, "Output JSON")
	pathCmd.Flags().Bool("json", false, "Output JSON")
	pathCmd.Flags().String("start", "", "Start node (default: classified Start)")
	pathCmd.Flags().String("end", "", "End node (default: classified End)")
	graphCmd.Flags().Bool("path", false, "Highlight the shortest required path")
	reportCmd.Flags().Bool("raw", false, "Print Markdown without rendering")
}
