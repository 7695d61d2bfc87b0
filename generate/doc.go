// Package generate implements the generation transform: each record's
// "prompt" is wrapped in a chat template, sent to an ai.Generator, and the
// reply (minus any echoed prompt, cut to a word budget) is stored in "text".
package generate
