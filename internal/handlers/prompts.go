package handlers

import "fmt"

const (
	analysisInstruction = `You are a pre-call revenue intelligence analyst. Your job is to extract strategic positioning data, not educational summaries. Be concise, bullet-driven and strategic. Prioritize leverage over description.`

	preBriefInstruction = `You are an elite pre-call revenue intelligence analyst. Output ONLY raw HTML with no markdown, no code blocks, no explanations.`

	salesSnapshotInstruction = `You are an elite internal sales strategist. Output ONLY raw HTML with no markdown, no code blocks, no explanations.`
)

// buildAnalysisPrompt asks for the seven-part strategic breakdown of a company site
func buildAnalysisPrompt(url, companyName, websiteContent string) string {
	return fmt.Sprintf(`Analyze: %s
Company Name: %s

Extract and structure the following:

1. COMPANY IDENTITY
- Industry classification
- Geographic market focus
- Core business model (what they actually sell vs. what they say they sell)
- Years in operation or founding indicators

2. DECISION-MAKER INTELLIGENCE
- Key leadership (names, titles, roles)
- Personal brand presence (LinkedIn, industry recognition, speaking/publishing)
- Ownership in related assets or vertical integration signals

3. COMPETITIVE REALITY
- 3-5 direct competitors
- What competitors win on (scale, price, tech, relationships)
- Where this company's differentiation actually sits

4. TRUST & SOCIAL PROOF
- Review ratings, volume and recurring themes, positive and negative
- Testimonials or case study signals
- Gaps between reputation and systematization

5. MARKET PRESSURE POINTS (infer from context)
- Signs of scaling friction (founder-dependent, manual processes)
- Technology adoption gaps
- Sales model inefficiencies (referral reliance, reactive outreach)
- Competitive threats they may not be addressing

6. STRATEGIC CONVERSATION ANCHORS
Identify 2-3 leverage points a sales conversation could be anchored around.

7. ONE HIDDEN INSIGHT
One non-obvious strategic vulnerability or opportunity that would give us conversational control.

OUTPUT FORMAT: Concise, bullet-driven, strategic. Avoid fluff.

WEBSITE DATA:
%s`, url, companyName, websiteContent)
}

// buildPreBriefPrompt produces the customer-facing positioning brief
func buildPreBriefPrompt(in DocumentInput) string {
	return fmt.Sprintf(`Extract strategic positioning data and present it as actionable sales intelligence for positioning and leverage.

====================
INPUT DATA
====================
Company Link:
%s

Client Name:
%s %s

COMPANY RESEARCH DATA:
%s

ADDITIONAL COMPANY ANALYSIS:
%s

====================
YOUR MISSION
====================
Generate a Pre-Brief that positions the salesperson to control the conversation before it starts. This is not for education. This is for positioning and leverage.

Cover, each under its own <h2>:
- Company Snapshot: what they sell, to whom, and where
- Decision-Maker Profile for the client named above
- Competitive Position and where they are exposed
- Reputation Signals and the gaps behind them
- Conversation Anchors: 2-3 openings with a suggested first question for each
- The Hidden Insight

CRITICAL: Output ONLY raw HTML starting with <h1>Revenue Intelligence Pre-Brief</h1> and ending with </p>. No markdown, no code blocks, no explanations.`,
		in.URL, in.FirstName, in.LastName, in.WebsiteContent, in.Analysis)
}

// buildSalesSnapshotPrompt produces the internal-only strategy snapshot
func buildSalesSnapshotPrompt(in DocumentInput) string {
	return fmt.Sprintf(`Prepare an internal sales snapshot for our team ahead of a call. This document is never shared with the prospect.

====================
INPUT DATA
====================
Company Link:
%s

Client Name:
%s %s

COMPANY RESEARCH DATA:
%s

ADDITIONAL COMPANY ANALYSIS:
%s

====================
YOUR MISSION
====================
Give the rep a one-page battle plan. Cover, each under its own <h2>:
- Deal Thesis: why this account, why now
- Likely Pains ranked by urgency
- Offer Fit: which of our services map to which pain
- Objections to expect and how to handle each
- Call Plan: opening, discovery questions, close
- Red Flags that would disqualify the account

CRITICAL: Output ONLY raw HTML starting with <h1>Internal Sales Snapshot</h1> and ending with </p>. No markdown, no code blocks, no explanations.`,
		in.URL, in.FirstName, in.LastName, in.WebsiteContent, in.Analysis)
}
