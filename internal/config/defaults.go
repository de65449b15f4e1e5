package config

// DefaultConfigYAML contains the default configuration YAML content written by `refiner init`.
// Credentials are left out on purpose; supply them through the environment.
const DefaultConfigYAML = `# Jira refiner configuration
#
# Credentials are read from the environment (or a .env file):
#   API_TOKEN       shared secret webhook callers send as "Authorization: Bearer <token>"
#   OPEN_AI_TOKEN   chat completion API key
#   JIRA_URL        e.g. https://example.atlassian.net
#   JIRA_EMAIL      account email for basic auth
#   JIRA_TOKEN      Jira API token
# Any key below can also be overridden with REFINER_<SECTION>_<KEY>.

server:
  host: 0.0.0.0
  port: 8000
  read_header_timeout: 10s
  shutdown_timeout: 10s
  max_body_bytes: 1048576
  # Leave empty to disable CORS; webhook senders do not need it.
  cors_origins: []

log:
  level: info
  format: auto

openai:
  # base_url: https://api.openai.com/v1/
  model: gpt-3.5-turbo
  temperature: 0.5
  timeout: 2m
  max_retries: 0

jira:
  timeout: 30s

tasks:
  # Upper bound for one background issue update.
  timeout: 5m
  # How long shutdown waits for in-flight updates.
  shutdown_timeout: 30s
  event_buffer: 100
`
