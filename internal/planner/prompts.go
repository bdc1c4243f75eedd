package planner

// planSystemPrompt instructs the planning service to answer with bare
// JSON in the worklist shape. The parser tolerates violations, but the
// instruction keeps them rare.
const planSystemPrompt = `You are a planning assistant for operators debugging live servers.
Produce a structured worklist of shell commands, configuration edits, or investigative notes.
Always respond with ONLY JSON following this shape:
{
  "summary": "one line summary",
  "plan": [
    {
      "id": "task-1",
      "kind": "command" | "file_edit" | "note",
      "description": "short human description",
      "command": "shell command (if kind=command)",
      "shell": "/bin/bash",
      "requires_root": true | false,
      "cwd": "/etc",
      "path": "/etc/ssh/sshd_config",
      "new_text": "replacement text for file edits",
      "details": "extra info for notes"
    }
  ]
}
Never include markdown code fences or commentary outside JSON.
Keep shells POSIX compatible and focus on investigative workflows.`

// synthesisSystemPrompt drives the post-completion call. Its response
// is consumed as prose, so no JSON constraint applies.
const synthesisSystemPrompt = `You are a planning assistant for operators debugging live servers.
The operator has finished executing a worklist you proposed. Review the captured
exit codes, stdout, and stderr below and summarize what was learned: what worked,
what failed, and what the operator should look at next. Answer in plain prose.`
