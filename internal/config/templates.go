package config

// DefaultShellConfigTemplate is the commented sample written by "config init".
const DefaultShellConfigTemplate = `# Taqyon shell configuration
# Command line flags override the values in this file.

# Main window
window:
  title: "Taqyon App"
  organization: "Taqyon"
  width: 1200
  height: 800
  min_width: 400
  min_height: 300

# Web frontend
# Leave dev_server and path empty to search for frontend/dist next to the
# executable and the working directory.
frontend:
  # dev_server: "http://localhost:3000"   # Load from a running dev server
  # path: "./frontend/dist"               # Directory holding index.html
  watch: false                            # Reload when the local frontend changes
  watch_debounce: "300ms"

# System tray
tray:
  enabled: true
  close_to_tray: true     # Closing the window hides it; quit from the tray
  tooltip: "Taqyon App"

# Links open in the system browser unless their host matches one of these
# patterns: "docs.example.com", "*.example.com" (subdomains only),
# ".example.com" (domain and subdomains) or "preview-*.example.com".
navigation:
  # in_app_hosts:
  #   - ".docs.example.com"

# Show View Source and Inspect Element in the context menu
devtools: false

# Local diagnostics server (metrics, recent events, live event stream)
diagnostics:
  enabled: false
  listen: "127.0.0.1:9477"   # Must be a loopback address
  journal_size: 500

logging:
  level: info      # trace, debug, info, warn, error
  format: text     # text, json
  output: stderr   # stdout, stderr, or a file path (appended)
`
