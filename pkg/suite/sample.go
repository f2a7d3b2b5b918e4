package suite

// Sample returns a reference suite definition demonstrating the full schema.
func Sample() string {
	return `# Verity browser test suite
# Scenarios are written in natural language and executed by an AI agent.

name: "E-commerce Test Suite"
description: "Core user flows for the storefront"
version: "1.0"
provider: "openai"  # openai, gemini, ollama, mistral
headless: true
base_url: "https://example.com"
global_context: "Testing the storefront with standard user flows"

global_config:
  max_parallel_tests: 3
  default_timeout: 45
  default_retry_count: 1
  default_viewport:
    width: 1920
    height: 1080

scenarios:
  - name: "Homepage Load"
    requirement: "Verify the homepage loads and displays navigation, hero section, and featured products"
    url: "/"
    test_type: "performance"
    take_screenshots: true
    timeout: 10
    steps:
      - "Navigate to the homepage"
      - "Check that the navigation menu is visible"
      - "Count featured products (should be >= 4)"
    expected_outcomes:
      - "Page loads within 3 seconds"
      - "Navigation menu is visible and functional"
      - "At least 4 featured products are shown"
    tags: ["homepage", "critical"]

  - name: "User Registration"
    requirement: "Test user registration with valid and invalid input"
    url: "/register"
    test_type: "functional"
    context: "The form should reject invalid emails and accept valid data"
    prerequisites: ["Homepage Load"]
    retry_count: 2
    steps:
      - "Navigate to the registration page"
      - "Submit the form with an invalid email and verify the error"
      - "Fill the form with valid data and submit"
    expected_outcomes:
      - "Invalid input shows a validation error"
      - "Valid registration redirects to the dashboard"
    tags: ["registration", "validation"]
    cleanup_actions:
      - "Delete the test user account"

  - name: "Product Search"
    requirement: "Search for 'laptop' and verify relevant results appear"
    url: "/search"
    test_type: "functional"
    parallel: true
    browsers: ["chromium", "firefox"]
    expected_outcomes:
      - "Search returns laptop products"
      - "Empty search shows an appropriate message"
    tags: ["search"]

  - name: "Mobile Layout"
    requirement: "Verify the homepage is usable at phone viewport sizes"
    url: "/"
    test_type: "ui"
    parallel: true
    viewport:
      width: 375
      height: 667
    expected_outcomes:
      - "No horizontal scrolling occurs"
      - "The hamburger menu opens and closes"
    tags: ["responsive", "mobile"]
`
}
