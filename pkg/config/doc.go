/*
Package config loads memoriad's on-disk configuration: data directory,
transport listen addresses, scheduler activity level, rate-limit tiers and
auth tokens. It follows the teacher's yaml.v3-based config pattern — a
plain struct with yaml tags and a Load(path) that defaults missing fields
rather than erroring on them (§10.3).
*/
package config
