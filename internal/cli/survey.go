package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgekit-dev/forge/internal/apperrors"
	"github.com/forgekit-dev/forge/internal/ghdiscovery"
	"github.com/forgekit-dev/forge/internal/graphmodel"
	"github.com/forgekit-dev/forge/internal/interview"
	"github.com/forgekit-dev/forge/internal/llmadapter"
	"github.com/forgekit-dev/forge/internal/repocache"
	"github.com/forgekit-dev/forge/internal/survey"
)

func newSurveyCommand() *cobra.Command {
	var repos []string
	var withInterview bool

	cmd := &cobra.Command{
		Use:   "survey <owner>",
		Short: "List, clone, and build a knowledge graph for an owner's repositories",
		Long: `survey lists an organization or user's repositories, clones or updates
each into the local cache, extracts services and resources from every
checkout, and folds the results into one persisted graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSurvey(cmd, args[0], repos, withInterview)
		},
	}

	cmd.Flags().StringArrayVar(&repos, "repo", nil, "restrict the survey to this repository name (repeatable)")
	cmd.Flags().BoolVar(&withInterview, "interview", false, "ask the configured LLM provider about the highest context-gap nodes")

	return cmd
}

func runSurvey(cmd *cobra.Command, owner string, repos []string, withInterview bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	gh := ghdiscovery.NewFromConfig(cfg)
	filter := ghdiscovery.FilterFromConfig(cfg)
	filter.Allowlist = append(filter.Allowlist, qualify(owner, repos)...)

	repositories, err := gh.ListOrg(ctx, owner, filter)
	if err != nil {
		return apperrors.Wrap(err, apperrors.TypeNetwork, "ListRepos", apperrors.SeverityHigh, "failed to list repositories")
	}
	if len(repositories) == 0 {
		fmt.Fprintf(out, "no repositories matched %s\n", owner)
		return nil
	}

	cache, err := repocache.Open(cfg.Cache.Root)
	if err != nil {
		return apperrors.Wrap(err, apperrors.TypePersistence, "CacheOpen", apperrors.SeverityHigh, "failed to open repo cache")
	}
	defer cache.Close()

	targets := make([]survey.Target, 0, len(repositories))
	for _, repo := range repositories {
		path, changed, err := cache.Sync(ctx, repo.FullName, repo.CloneURL)
		if err != nil {
			fmt.Fprintf(out, "  ! %s: %v\n", repo.FullName, err)
			continue
		}
		if changed {
			fmt.Fprintf(out, "  ~ %s: synced\n", repo.FullName)
		} else {
			fmt.Fprintf(out, "  = %s: up to date\n", repo.FullName)
		}
		targets = append(targets, survey.Target{Namespace: repo.FullName, RepoPath: path})
	}
	if len(targets) == 0 {
		return apperrors.New(apperrors.TypeExtractor, "NoTargets", apperrors.SeverityHigh, "no repository synced successfully")
	}

	result, err := survey.Run(ctx, survey.Config{Targets: targets, MaxConcurrency: cfg.Survey.MaxConcurrency}, log)
	if err != nil {
		return apperrors.Wrap(err, apperrors.TypeExtractor, "SurveyRun", apperrors.SeverityHigh, "survey failed")
	}
	for namespace, perErr := range result.PerTarget {
		if perErr != nil {
			fmt.Fprintf(out, "  ! %s: %v\n", namespace, perErr)
		}
	}

	if withInterview {
		if err := runInterview(ctx, result.Graph); err != nil {
			fmt.Fprintf(out, "  ! interview: %v\n", err)
		}
	}

	snapshot := result.Graph.Snapshot(graphmodel.GraphMetadata{
		ForgeVersion:     "0.1.0",
		CreatedAt:        time.Now().UTC(),
		LastSurveyConfig: owner,
	})
	if err := snapshot.Save(cfg.Graph.SnapshotPath); err != nil {
		return apperrors.Wrap(err, apperrors.TypePersistence, "SnapshotSave", apperrors.SeverityHigh, "failed to save graph snapshot")
	}

	fmt.Fprintf(out, "saved %d nodes, %d edges to %s\n", len(result.Graph.Nodes()), len(result.Graph.Edges()), cfg.Graph.SnapshotPath)
	return nil
}

func runInterview(ctx context.Context, g *graphmodel.Graph) error {
	provider, err := llmadapter.New(ctx, cfg.LLM.Provider, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return err
	}
	topN := cfg.Survey.InterviewTopN
	result, err := interview.Run(ctx, g, interview.Config{Provider: provider, TopN: topN})
	if err != nil {
		return err
	}
	_ = result
	return nil
}

// qualify turns bare repository names into "owner/name" so they can be
// matched against a Filter's allowlist, which compares full names.
func qualify(owner string, repos []string) []string {
	qualified := make([]string, len(repos))
	for i, r := range repos {
		qualified[i] = owner + "/" + r
	}
	return qualified
}
