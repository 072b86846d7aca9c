package council

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"digital.vasic.consensus/pkg/models"
	"digital.vasic.consensus/pkg/prompts"
)

// fanOut runs fn(i) for every i in [0,n) concurrently and waits for all
// of them. Individual failures are fn's problem: the phase never aborts
// on one bad call. A configured MaxParallelism caps in-flight calls.
func (c *CouncilDebate) fanOut(ctx context.Context, n int, fn func(i int)) {
	var sem *semaphore.Weighted
	if c.cfg.MaxParallelism > 0 {
		sem = semaphore.NewWeighted(c.cfg.MaxParallelism)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)
			}
			fn(i)
		}(i)
	}
	wg.Wait()
}

// critiqueRound has every participant critique every other participant's
// initial answer: N·(N−1) concurrent calls. Failed calls are dropped
// silently; surviving critiques attach to the target branch in
// deterministic job order.
func (c *CouncilDebate) critiqueRound(ctx context.Context, prompt string, parts []Participant, branches map[string]*models.CouncilBranch, order []string) {
	type job struct {
		critic Participant
		target string
	}
	var jobs []job
	for _, critic := range parts {
		for _, target := range order {
			if critic.ModelID == target {
				continue
			}
			jobs = append(jobs, job{critic: critic, target: target})
		}
	}

	results := make([]*models.Critique, len(jobs))
	c.fanOut(ctx, len(jobs), func(i int) {
		j := jobs[i]
		out, err := j.critic.ref().Complete(ctx, prompts.Critique(prompt, branches[j.target].InitialAnswer), nil)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"critic": j.critic.ModelID,
				"target": j.target,
			}).Warnf("Critique call failed, dropping: %v", err)
			return
		}
		results[i] = &models.Critique{
			CriticModelID: j.critic.ModelID,
			TargetModelID: j.target,
			Content:       out,
		}
	})

	for _, critique := range results {
		if critique == nil {
			continue
		}
		b := branches[critique.TargetModelID]
		b.Critiques = append(b.Critiques, *critique)
	}
}

// rebuttalRound asks each critiqued branch's own model to defend or
// concede: at most N concurrent calls, one per branch with at least one
// critique. Failures leave the rebuttal absent.
func (c *CouncilDebate) rebuttalRound(ctx context.Context, prompt string, parts []Participant, branches map[string]*models.CouncilBranch, order []string) {
	var jobs []Participant
	for _, p := range parts {
		if len(branches[p.ModelID].Critiques) > 0 {
			jobs = append(jobs, p)
		}
	}

	results := make([]*models.Rebuttal, len(jobs))
	c.fanOut(ctx, len(jobs), func(i int) {
		p := jobs[i]
		b := branches[p.ModelID]
		critiques := make([]string, 0, len(b.Critiques))
		for _, cr := range b.Critiques {
			critiques = append(critiques, cr.Content)
		}
		out, err := p.ref().Complete(ctx, prompts.RebuttalPrompt(prompt, b.InitialAnswer, critiques), nil)
		if err != nil {
			c.logger.WithFields(logrus.Fields{"model": p.ModelID}).Warnf("Rebuttal call failed, leaving rebuttal absent: %v", err)
			return
		}
		results[i] = &models.Rebuttal{AuthorModelID: p.ModelID, Content: out}
	})

	for i, rebuttal := range results {
		if rebuttal != nil {
			branches[jobs[i].ModelID].Rebuttal = rebuttal
		}
	}
}

// judgmentRound has every other participant cast a validity vote on every
// branch: N·(N−1) concurrent calls. Call failures and unparseable output
// both degrade to the lenient default vote, valid with empty reasoning,
// biasing toward keeping branches. A branch survives when its valid-vote
// fraction meets the threshold; exactly the threshold passes.
func (c *CouncilDebate) judgmentRound(ctx context.Context, prompt string, parts []Participant, branches map[string]*models.CouncilBranch, order []string) {
	type job struct {
		voter  Participant
		branch string
	}
	var jobs []job
	for _, voter := range parts {
		for _, branch := range order {
			if voter.ModelID == branch {
				continue
			}
			jobs = append(jobs, job{voter: voter, branch: branch})
		}
	}

	votes := make([]models.BranchVote, len(jobs))
	c.fanOut(ctx, len(jobs), func(i int) {
		j := jobs[i]
		b := branches[j.branch]

		vote := models.BranchVote{
			VoterModelID:  j.voter.ModelID,
			BranchModelID: j.branch,
			IsValid:       true,
		}

		rebuttal := ""
		if b.Rebuttal != nil {
			rebuttal = b.Rebuttal.Content
		}
		out, err := j.voter.ref().Complete(ctx, prompts.Judgment(prompt, b.InitialAnswer, rebuttal), nil)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"voter":  j.voter.ModelID,
				"branch": j.branch,
			}).Warnf("Judgment call failed, defaulting to valid: %v", err)
			votes[i] = vote
			return
		}

		payload, err := prompts.ParseVote(out)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"voter":  j.voter.ModelID,
				"branch": j.branch,
			}).Warnf("Judgment output unparseable, defaulting to valid: %v", err)
			votes[i] = vote
			return
		}

		vote.IsValid = payload.IsValid
		vote.Reasoning = payload.Reasoning
		votes[i] = vote
	})

	for _, vote := range votes {
		b, ok := branches[vote.BranchModelID]
		if !ok {
			// Zero-value slot from a job skipped on context cancellation.
			continue
		}
		b.Votes = append(b.Votes, vote)
		if vote.IsValid {
			b.ValidVoteCount++
		}
	}

	totalVoters := len(parts) - 1
	for _, id := range order {
		b := branches[id]
		b.IsValid = totalVoters > 0 &&
			float64(b.ValidVoteCount)/float64(totalVoters) >= c.cfg.ValidityThreshold
	}
}
