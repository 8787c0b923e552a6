// Package bengalerrors implements the build engine's error taxonomy: a
// stable code enumeration, a classified-error type with structured
// context, a fluent builder, per-build deduplication, and rich display
// formatting for rendering failures.
package bengalerrors

import "fmt"

// Code is a stable error identifier: a single-letter category prefix
// followed by three digits (e.g. "R001"). Codes are never renumbered or
// reused once shipped.
type Code string

// Category buckets for the code prefix.
const (
	CategoryConfig     = "config"
	CategoryContent    = "content"
	CategoryRendering  = "rendering"
	CategoryDiscovery  = "discovery"
	CategoryCache      = "cache"
	CategoryServer     = "server"
	CategoryTemplateFn = "template_function"
	CategoryParsing    = "parsing"
	CategoryAsset      = "asset"
	CategoryInternal   = "internal"
	CategoryUnknown    = "unknown"
)

// Subsystem buckets for the code prefix.
const (
	SubsystemConfig    = "config"
	SubsystemCore      = "core"
	SubsystemRendering = "rendering"
	SubsystemDiscovery = "discovery"
	SubsystemCache     = "cache"
	SubsystemServer    = "server"
	SubsystemAssets    = "assets"
	SubsystemUnknown   = "unknown"
)

// Config errors (C-prefix).
const (
	ConfigYAMLParseError      Code = "C001"
	ConfigKeyMissing          Code = "C002"
	ConfigInvalidValue        Code = "C003"
	ConfigTypeMismatch        Code = "C004"
	ConfigDefaultsMissing     Code = "C005"
	ConfigEnvironmentUnknown  Code = "C006"
	ConfigCircularReference   Code = "C007"
	ConfigDeprecatedKey       Code = "C008"
)

// Content errors (N-prefix).
const (
	FrontmatterInvalid        Code = "N001"
	FrontmatterDateInvalid    Code = "N002"
	ContentFileEncoding       Code = "N003"
	ContentFileNotFound       Code = "N004"
	ContentMarkdownError      Code = "N005"
	ContentShortcodeError     Code = "N006"
	ContentTOCExtractionError Code = "N007"
	ContentTaxonomyInvalid    Code = "N008"
	ContentWeightInvalid      Code = "N009"
	ContentSlugInvalid        Code = "N010"
)

// Rendering errors (R-prefix).
const (
	TemplateNotFound         Code = "R001"
	TemplateSyntaxError      Code = "R002"
	TemplateUndefinedVar     Code = "R003"
	TemplateFilterError      Code = "R004"
	TemplateIncludeError     Code = "R005"
	TemplateMacroError       Code = "R006"
	TemplateBlockError       Code = "R007"
	TemplateContextError     Code = "R008"
	TemplateInheritanceError Code = "R009"
	RenderOutputError        Code = "R010"
)

// Discovery errors (D-prefix).
const (
	ContentDirNotFound       Code = "D001"
	InvalidContentPath       Code = "D002"
	SectionIndexMissing      Code = "D003"
	CircularSectionReference Code = "D004"
	DuplicatePagePath        Code = "D005"
	InvalidFilePattern       Code = "D006"
	PermissionDenied         Code = "D007"
)

// Cache errors (A-prefix).
const (
	CodeCacheCorruption      Code = "A001"
	CodeCacheVersionMismatch Code = "A002"
	CodeCacheReadError       Code = "A003"
	CodeCacheWriteError      Code = "A004"
	CodeCacheInvalidation    Code = "A005"
	CodeCacheLockTimeout     Code = "A006"
)

// Server errors (S-prefix).
const (
	ServerPortInUse        Code = "S001"
	ServerBindError        Code = "S002"
	ServerReloadError      Code = "S003"
	ServerWebsocketError   Code = "S004"
	ServerStaticFileError  Code = "S005"
)

// Template-function errors (T-prefix).
const (
	ShortcodeNotFound          Code = "T001"
	ShortcodeArgumentError     Code = "T002"
	ShortcodeRenderError       Code = "T003"
	DirectiveNotFound          Code = "T004"
	DirectiveArgumentError     Code = "T005"
	DirectiveSinceEmpty        Code = "T006"
	DirectiveDeprecatedEmpty   Code = "T007"
	DirectiveChangedEmpty      Code = "T008"
	DirectiveIncludeNotFound   Code = "T009"
)

// Parsing errors (P-prefix).
const (
	YAMLParseError               Code = "P001"
	JSONParseError                Code = "P002"
	TOMLParseError                Code = "P003"
	MarkdownParseError            Code = "P004"
	FrontmatterDelimiterMissing   Code = "P005"
	GlossaryParseError            Code = "P006"
)

// Asset errors (X-prefix).
const (
	AssetNotFound        Code = "X001"
	AssetInvalidPath     Code = "X002"
	AssetProcessingError Code = "X003"
	AssetCopyError       Code = "X004"
	AssetFingerprintError Code = "X005"
	AssetMinifyError     Code = "X006"
)

// Internal/runtime error, outside the original taxonomy's letters but
// needed for genuinely unclassified failures (bug traps, unreachable
// branches).
const InternalErrorCode Code = "I001"

// codeNames maps every registered code to its snake_case name, the Go
// equivalent of the Python Enum member name.
var codeNames = map[Code]string{
	ConfigYAMLParseError: "config_yaml_parse_error", ConfigKeyMissing: "config_key_missing",
	ConfigInvalidValue: "config_invalid_value", ConfigTypeMismatch: "config_type_mismatch",
	ConfigDefaultsMissing: "config_defaults_missing", ConfigEnvironmentUnknown: "config_environment_unknown",
	ConfigCircularReference: "config_circular_reference", ConfigDeprecatedKey: "config_deprecated_key",

	FrontmatterInvalid: "frontmatter_invalid", FrontmatterDateInvalid: "frontmatter_date_invalid",
	ContentFileEncoding: "content_file_encoding", ContentFileNotFound: "content_file_not_found",
	ContentMarkdownError: "content_markdown_error", ContentShortcodeError: "content_shortcode_error",
	ContentTOCExtractionError: "content_toc_extraction_error", ContentTaxonomyInvalid: "content_taxonomy_invalid",
	ContentWeightInvalid: "content_weight_invalid", ContentSlugInvalid: "content_slug_invalid",

	TemplateNotFound: "template_not_found", TemplateSyntaxError: "template_syntax_error",
	TemplateUndefinedVar: "template_undefined_variable", TemplateFilterError: "template_filter_error",
	TemplateIncludeError: "template_include_error", TemplateMacroError: "template_macro_error",
	TemplateBlockError: "template_block_error", TemplateContextError: "template_context_error",
	TemplateInheritanceError: "template_inheritance_error", RenderOutputError: "render_output_error",

	ContentDirNotFound: "content_dir_not_found", InvalidContentPath: "invalid_content_path",
	SectionIndexMissing: "section_index_missing", CircularSectionReference: "circular_section_reference",
	DuplicatePagePath: "duplicate_page_path", InvalidFilePattern: "invalid_file_pattern",
	PermissionDenied: "permission_denied",

	CodeCacheCorruption: "cache_corruption", CodeCacheVersionMismatch: "cache_version_mismatch",
	CodeCacheReadError: "cache_read_error", CodeCacheWriteError: "cache_write_error",
	CodeCacheInvalidation: "cache_invalidation_error", CodeCacheLockTimeout: "cache_lock_timeout",

	ServerPortInUse: "server_port_in_use", ServerBindError: "server_bind_error",
	ServerReloadError: "server_reload_error", ServerWebsocketError: "server_websocket_error",
	ServerStaticFileError: "server_static_file_error",

	ShortcodeNotFound: "shortcode_not_found", ShortcodeArgumentError: "shortcode_argument_error",
	ShortcodeRenderError: "shortcode_render_error", DirectiveNotFound: "directive_not_found",
	DirectiveArgumentError: "directive_argument_error", DirectiveSinceEmpty: "directive_since_empty",
	DirectiveDeprecatedEmpty: "directive_deprecated_empty", DirectiveChangedEmpty: "directive_changed_empty",
	DirectiveIncludeNotFound: "directive_include_not_found",

	YAMLParseError: "yaml_parse_error", JSONParseError: "json_parse_error",
	TOMLParseError: "toml_parse_error", MarkdownParseError: "markdown_parse_error",
	FrontmatterDelimiterMissing: "frontmatter_delimiter_missing", GlossaryParseError: "glossary_parse_error",

	AssetNotFound: "asset_not_found", AssetInvalidPath: "asset_invalid_path",
	AssetProcessingError: "asset_processing_failed", AssetCopyError: "asset_copy_error",
	AssetFingerprintError: "asset_fingerprint_error", AssetMinifyError: "asset_minify_error",

	InternalErrorCode: "internal_error",
}

var categoryByPrefix = map[byte]string{
	'C': CategoryConfig, 'N': CategoryContent, 'R': CategoryRendering,
	'D': CategoryDiscovery, 'A': CategoryCache, 'S': CategoryServer,
	'T': CategoryTemplateFn, 'P': CategoryParsing, 'X': CategoryAsset,
	'I': CategoryInternal,
}

var subsystemByPrefix = map[byte]string{
	'C': SubsystemConfig, 'N': SubsystemCore, 'R': SubsystemRendering,
	'D': SubsystemDiscovery, 'A': SubsystemCache, 'S': SubsystemServer,
	'T': SubsystemRendering, 'P': SubsystemCore, 'X': SubsystemAssets,
}

// Name returns the snake_case identifier for the code (e.g. "cache_corruption").
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// Category returns the broad error category derived from the code's prefix letter.
func (c Code) Category() string {
	if len(c) == 0 {
		return CategoryUnknown
	}
	if cat, ok := categoryByPrefix[c[0]]; ok {
		return cat
	}
	return CategoryUnknown
}

// Subsystem returns the owning subsystem derived from the code's prefix letter.
func (c Code) Subsystem() string {
	if len(c) == 0 {
		return SubsystemUnknown
	}
	if sub, ok := subsystemByPrefix[c[0]]; ok {
		return sub
	}
	return SubsystemUnknown
}

// DocsURL returns the documentation anchor for the code.
func (c Code) DocsURL() string {
	return fmt.Sprintf("/docs/errors/%s/", c.Name())
}

func (c Code) String() string { return string(c) }

// Registry returns every registered code with its name, category, and
// subsystem, for a CLI/debug surface that wants to enumerate the taxonomy
// (the Go analogue of the Python error-docs generation script).
func Registry() []CodeInfo {
	infos := make([]CodeInfo, 0, len(codeNames))
	for code, name := range codeNames {
		infos = append(infos, CodeInfo{
			Code:      code,
			Name:      name,
			Category:  code.Category(),
			Subsystem: code.Subsystem(),
			DocsURL:   code.DocsURL(),
		})
	}
	return infos
}

// CodeInfo is one Registry() entry.
type CodeInfo struct {
	Code      Code
	Name      string
	Category  string
	Subsystem string
	DocsURL   string
}

// ByName looks a code up by its snake_case name or its code string (e.g.
// "R001" or "template_not_found").
func ByName(name string) (Code, bool) {
	if _, ok := codeNames[Code(name)]; ok {
		return Code(name), true
	}
	for code, n := range codeNames {
		if n == name {
			return code, true
		}
	}
	return "", false
}
