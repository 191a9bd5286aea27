package mcpserver

const contractURI = "stickies://note-format"

// NoteFormatContract describes the sticky note record that LLM consumers
// read and write through the tools.
const NoteFormatContract = `# Sticky Note Format

The board is one JSON array of note records, stored under a single key.
Array order is z-order: the last note is drawn on top.

## Record

` + "```" + `json
{
  "id": "0b6c2f0e-6f0e-4f63-9f3a-3b2c7f1d9a10",
  "text": "Ship the release notes",
  "severity": "warning",
  "position": {"x": 400, "y": 200},
  "visibleBreakpoints": ["large"],
  "pinned": false,
  "savedAt": "2026-05-04T12:00:00Z"
}
` + "```" + `

## Rules

1. **id** is opaque and unique within the board. It is assigned by ` + "`" + `add_note` + "`" + `.
2. **text** holds at most 300 characters; longer input is truncated.
3. **severity** is one of ` + "`" + `info` + "`" + `, ` + "`" + `warning` + "`" + `, ` + "`" + `error` + "`" + `, ` + "`" + `success` + "`" + `.
4. **position** is in canvas pixels. Negative values are allowed but a note left of
   x = 0 is off the canvas.
5. **visibleBreakpoints** lists the layout sizes (` + "`" + `small` + "`" + `, ` + "`" + `large` + "`" + `) the note
   is shown at. An empty list means everywhere.
6. **savedAt** is set by the board on every successful save. Do not write it.

## Tools

- ` + "`" + `list_notes` + "`" + ` returns the array.
- ` + "`" + `add_note` + "`" + ` appends a note at (400, 200) with text "New Note" unless fields are given.
- ` + "`" + `update_note` + "`" + ` changes only the fields passed.
- ` + "`" + `delete_notes` + "`" + ` removes notes by id.
- ` + "`" + `align_notes` + "`" + ` gives every listed note the x (or y) of the first listed note.
`
