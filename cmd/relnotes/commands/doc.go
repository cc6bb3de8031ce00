// Package commands defines the relnotes CLI and wires dependencies for subcommands.
//
// Commands
//
//   - repos      List or search repositories you can access
//   - refs       Show milestones, tags, and branches of a repository
//   - fetch      Collect pull requests, issues, and commits for a range into a draft
//   - drafts     List stored drafts
//   - items      Show the items of the current draft
//   - include    Include items in the release
//   - exclude    Exclude items from the release
//   - note       Attach a release note to an item
//   - meta       Edit draft version, title, and description
//   - review     Review items interactively
//   - export     Render the draft as Markdown or JSON
//   - delete     Delete a stored draft
//   - clear      Remove every stored draft
//
// # Implementation
//
// The root command loads configuration, sets up logging, and opens the draft
// backend before any subcommand runs. GitHub access goes through the gh CLI, so
// authentication follows `gh auth login` unless a token is configured.
package commands
