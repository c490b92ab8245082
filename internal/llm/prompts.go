package llm

const scorePrompt = `You are reviewing a hypothesis a team member wrote down from their own work experience.
Rate it on three axes, each between 0.0 and 1.0:
- novelty_score: how new the insight is compared to common knowledge
- specificity_score: how concrete and actionable it is (conditions, actors, expected effect)
- impact_score: how much it would change outcomes if it holds

Respond ONLY with JSON, no markdown:
{"novelty_score":0.0,"specificity_score":0.0,"impact_score":0.0,"rationale":"one or two sentences"}

Hypothesis:
%s`

const anonymizePrompt = `Rewrite the following hypothesis so it can be shared with the whole team without revealing who wrote it.
Remove names, customer names, dates and any other detail that points to a specific person or account,
but keep the insight and its conditions intact. Then give one short reason why sharing it would help the team.

Respond ONLY with JSON, no markdown:
{"anonymized_content":"...","suggestion_reason":"..."}

Hypothesis:
%s`
